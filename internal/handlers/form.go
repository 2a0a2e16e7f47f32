package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/clinicdesk/schedcal/internal/form"
	"github.com/clinicdesk/schedcal/internal/model"
	"github.com/clinicdesk/schedcal/internal/store"
)

// FormHandler routes the calendar's selection callbacks into the form
// controller: a slot selection opens a create session, an event selection
// opens an edit session, and submit/delete/cancel drive the transitions.
// One handler serves one UI surface; the mutex serializes the form routes
// because net/http still dispatches them concurrently.
type FormHandler struct {
	mu      sync.Mutex
	ctrl    *form.Controller
	store   *store.Store
	confirm *requestConfirmer
	logger  *slog.Logger
}

// requestConfirmer answers the delete prompt with whatever the current
// request's body carried.
type requestConfirmer struct {
	answer bool
}

func (c *requestConfirmer) Confirm(string) bool { return c.answer }

func NewFormHandler(st *store.Store, logger *slog.Logger) *FormHandler {
	confirm := &requestConfirmer{}
	return &FormHandler{
		ctrl:    form.NewController(st, confirm),
		store:   st,
		confirm: confirm,
		logger:  logger,
	}
}

type openRequest struct {
	Date          string `json:"date"`           // YYYY-MM-DD, slot selection
	AppointmentID string `json:"appointment_id"` // event selection
}

type openResponse struct {
	Mode    string             `json:"mode"`
	Editing *model.Appointment `json:"editing,omitempty"`
}

func (h *FormHandler) Open(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if id := strings.TrimSpace(req.AppointmentID); id != "" {
		appt, ok := h.store.Get(id)
		if !ok {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.ctrl.Open(appt.Start, &appt)
		writeJSON(w, http.StatusOK, openResponse{Mode: "edit", Editing: &appt})
		return
	}

	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.Local)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	h.ctrl.Open(date, nil)
	writeJSON(w, http.StatusOK, openResponse{Mode: "create"})
}

type submitRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Time      string `json:"time"` // HH:MM, empty when no time was picked
}

func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.PatientID = strings.TrimSpace(req.PatientID)
	req.DoctorID = strings.TrimSpace(req.DoctorID)
	if req.PatientID == "" || req.DoctorID == "" {
		http.Error(w, "patient_id and doctor_id are required", http.StatusBadRequest)
		return
	}

	var timeOfDay *time.Time
	if raw := strings.TrimSpace(req.Time); raw != "" {
		parsed, err := time.Parse("15:04", raw)
		if err != nil {
			http.Error(w, "invalid time", http.StatusBadRequest)
			return
		}
		timeOfDay = &parsed
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	appt, err := h.ctrl.Submit(req.PatientID, req.DoctorID, timeOfDay)
	switch {
	case errors.Is(err, form.ErrTimeRequired):
		http.Error(w, "a time must be selected", http.StatusBadRequest)
		return
	case errors.Is(err, form.ErrNoSession):
		http.Error(w, "no open form session", http.StatusConflict)
		return
	case errors.Is(err, store.ErrDuplicateID):
		http.Error(w, "duplicate appointment id", http.StatusConflict)
		return
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("form submit failed", "err", err)
		http.Error(w, "submit failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, appt)
}

type deleteRequest struct {
	Confirm bool `json:"confirm"`
}

type deleteResponse struct {
	Removed bool `json:"removed"`
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.confirm.answer = req.Confirm
	removed, err := h.ctrl.Delete()
	if errors.Is(err, form.ErrNotEditing) {
		http.Error(w, "no appointment selected for deletion", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("form delete failed", "err", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Removed: removed})
}

func (h *FormHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mu.Lock()
	h.ctrl.Cancel()
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
