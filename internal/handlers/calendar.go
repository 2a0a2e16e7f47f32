package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/clinicdesk/schedcal/internal/directory"
	"github.com/clinicdesk/schedcal/internal/model"
	"github.com/clinicdesk/schedcal/internal/schedule"
	"github.com/clinicdesk/schedcal/internal/store"
)

// CalendarHandler serves the rendering boundary: display-ready events out,
// plus the directory lists the form dropdowns need.
type CalendarHandler struct {
	store  *store.Store
	dir    *directory.Directory
	logger *slog.Logger
}

func NewCalendarHandler(st *store.Store, dir *directory.Directory, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{store: st, dir: dir, logger: logger}
}

type eventsResponse struct {
	Events []model.CalendarEvent `json:"events"`
}

// Events returns the filtered, projected collection. The view parameter
// picks the time label variant: "mobile" gets the compact 24-hour label,
// anything else the localized AM/PM label.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	f := schedule.Filter{
		PatientID: q.Get("patient_id"),
		DoctorID:  q.Get("doctor_id"),
	}
	label := schedule.LocalizedTimeLabel
	if q.Get("view") == "mobile" {
		label = schedule.CompactTimeLabel
	}

	events := schedule.ProjectAll(h.store.All(), f, h.dir, label)
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// ICS exports the (optionally filtered) collection as an iCalendar feed.
func (h *CalendarHandler) ICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	f := schedule.Filter{
		PatientID: q.Get("patient_id"),
		DoctorID:  q.Get("doctor_id"),
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	now := time.Now()
	for _, a := range f.Apply(h.store.All()) {
		ev := schedule.Project(a, h.dir, schedule.LocalizedTimeLabel)
		e := cal.AddEvent(a.ID + "@schedcal")
		e.SetDtStampTime(now)
		e.SetStartAt(a.Start)
		e.SetEndAt(a.End)
		e.SetSummary(ev.Title)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := cal.SerializeTo(w); err != nil {
		h.logger.Error("ics serialize failed", "err", err)
	}
}

func (h *CalendarHandler) Patients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Patient{"patients": h.dir.Patients()})
}

func (h *CalendarHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Doctor{"doctors": h.dir.Doctors()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
