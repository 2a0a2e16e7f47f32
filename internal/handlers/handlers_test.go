package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clinicdesk/schedcal/internal/directory"
	"github.com/clinicdesk/schedcal/internal/model"
	"github.com/clinicdesk/schedcal/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New()
	start := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	appts := []model.Appointment{
		{ID: "a1", Start: start, End: start.Add(30 * time.Minute), PatientID: "p1", DoctorID: "d1"},
		{ID: "a2", Start: start.Add(time.Hour), End: start.Add(90 * time.Minute), PatientID: "p2", DoctorID: "d2"},
	}
	for _, a := range appts {
		if err := st.Add(a); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return st
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestEvents(t *testing.T) {
	h := NewCalendarHandler(seededStore(t), directory.Default(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp eventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	if resp.Events[0].Title != "John Doe with Dr. Adams" {
		t.Fatalf("title = %q", resp.Events[0].Title)
	}
	if resp.Events[0].Resource.TimeLabel != "02:30 PM" {
		t.Fatalf("desktop label = %q", resp.Events[0].Resource.TimeLabel)
	}
}

func TestEventsFilteredAndMobileView(t *testing.T) {
	h := NewCalendarHandler(seededStore(t), directory.Default(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?doctor_id=d2&view=mobile", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)

	var resp eventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != "a2" {
		t.Fatalf("filter not applied: %+v", resp.Events)
	}
	if resp.Events[0].Resource.TimeLabel != "15:30" {
		t.Fatalf("mobile label = %q", resp.Events[0].Resource.TimeLabel)
	}
}

func TestICSExport(t *testing.T) {
	h := NewCalendarHandler(seededStore(t), directory.Default(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar.ics", nil)
	rec := httptest.NewRecorder()
	h.ICS(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Fatal("missing VCALENDAR envelope")
	}
	if !strings.Contains(body, "a1@schedcal") {
		t.Fatal("missing event uid")
	}
	if !strings.Contains(body, "John Doe with Dr. Adams") {
		t.Fatal("missing event summary")
	}
}

func TestFormCreateFlow(t *testing.T) {
	st := store.New()
	h := NewFormHandler(st, testLogger())

	rec := postJSON(t, h.Open, openRequest{Date: "2024-06-01"})
	if rec.Code != http.StatusOK {
		t.Fatalf("open status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, h.Submit, submitRequest{PatientID: "p1", DoctorID: "d1", Time: "14:30"})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d body=%s", rec.Code, rec.Body.String())
	}
	var appt model.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if appt.Start.Hour() != 14 || appt.Start.Minute() != 30 {
		t.Fatalf("start = %s", appt.Start)
	}
	if !appt.End.Equal(appt.Start.Add(30 * time.Minute)) {
		t.Fatalf("end = %s", appt.End)
	}
	if st.Len() != 1 {
		t.Fatalf("store len = %d", st.Len())
	}
}

func TestFormSubmitWithoutTime(t *testing.T) {
	st := store.New()
	h := NewFormHandler(st, testLogger())

	postJSON(t, h.Open, openRequest{Date: "2024-06-01"})
	rec := postJSON(t, h.Submit, submitRequest{PatientID: "p1", DoctorID: "d1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if st.Len() != 0 {
		t.Fatal("rejected submission must not mutate the store")
	}
}

func TestFormEditAndDelete(t *testing.T) {
	st := seededStore(t)
	h := NewFormHandler(st, testLogger())

	rec := postJSON(t, h.Open, openRequest{AppointmentID: "a1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("open status = %d", rec.Code)
	}
	var opened openResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if opened.Mode != "edit" || opened.Editing == nil || opened.Editing.ID != "a1" {
		t.Fatalf("unexpected open response: %+v", opened)
	}

	// Declined confirmation leaves everything in place.
	rec = postJSON(t, h.Delete, deleteRequest{Confirm: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	var del deleteResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &del)
	if del.Removed || st.Len() != 2 {
		t.Fatalf("declined delete mutated state: %+v len=%d", del, st.Len())
	}

	rec = postJSON(t, h.Delete, deleteRequest{Confirm: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &del)
	if !del.Removed || st.Len() != 1 {
		t.Fatalf("confirmed delete failed: %+v len=%d", del, st.Len())
	}
	if _, ok := st.Get("a1"); ok {
		t.Fatal("a1 should be gone")
	}
}

func TestFormRoutesConcurrent(t *testing.T) {
	st := store.New()
	h := NewFormHandler(st, testLogger())

	// The handler serializes form routes internally; hammer it from many
	// goroutines and check the store stays consistent: every submit that
	// reported success added exactly one appointment.
	var wg sync.WaitGroup
	var created int64
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				open := httptest.NewRequest(http.MethodPost, "/",
					strings.NewReader(`{"date":"2024-06-01"}`))
				h.Open(httptest.NewRecorder(), open)

				submit := httptest.NewRequest(http.MethodPost, "/",
					strings.NewReader(`{"patient_id":"p1","doctor_id":"d1","time":"14:30"}`))
				rec := httptest.NewRecorder()
				h.Submit(rec, submit)
				if rec.Code == http.StatusOK {
					atomic.AddInt64(&created, 1)
				}
			}
		}()
	}
	wg.Wait()

	if int64(st.Len()) != created {
		t.Fatalf("store len %d does not match %d successful submits", st.Len(), created)
	}
}

func TestFormOpenUnknownAppointment(t *testing.T) {
	h := NewFormHandler(store.New(), testLogger())
	rec := postJSON(t, h.Open, openRequest{AppointmentID: "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSessionAuth(t *testing.T) {
	auth, err := NewSessionAuth("admin", "s3cret", time.Hour, testLogger())
	if err != nil {
		t.Fatalf("NewSessionAuth: %v", err)
	}

	rec := postJSON(t, auth.Login, loginRequest{Username: "admin", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = postJSON(t, auth.Login, loginRequest{Username: "admin", Password: "s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	protected := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	probe := httptest.NewRecorder()
	protected.ServeHTTP(probe, req)
	if probe.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", probe.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	probe = httptest.NewRecorder()
	protected.ServeHTTP(probe, req)
	if probe.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", probe.Code)
	}

	// Health endpoints bypass the gate.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	probe = httptest.NewRecorder()
	protected.ServeHTTP(probe, req)
	if probe.Code != http.StatusOK {
		t.Fatalf("healthz should bypass auth, got %d", probe.Code)
	}
}
