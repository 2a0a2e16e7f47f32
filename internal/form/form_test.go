package form

import (
	"errors"
	"testing"
	"time"

	"github.com/clinicdesk/schedcal/internal/model"
	"github.com/clinicdesk/schedcal/internal/store"
)

func confirmWith(answer bool) Confirmer {
	return ConfirmerFunc(func(string) bool { return answer })
}

func TestSubmitCreate(t *testing.T) {
	st := store.New()
	c := NewController(st, confirmWith(true))

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c.Open(date, nil)
	if c.Mode() != ModeCreate {
		t.Fatalf("expected create mode, got %v", c.Mode())
	}

	at := time.Date(2024, 6, 1, 14, 30, 45, 123, time.UTC) // seconds/nanos must be dropped
	appt, err := c.Submit("p1", "d1", &at)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	wantStart := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	if !appt.Start.Equal(wantStart) {
		t.Fatalf("start = %s, want %s", appt.Start, wantStart)
	}
	if !appt.End.Equal(wantStart.Add(30 * time.Minute)) {
		t.Fatalf("end = %s, want start+30m", appt.End)
	}
	if appt.ID == "" {
		t.Fatal("expected a generated id")
	}
	if st.Len() != 1 {
		t.Fatalf("expected appointment in store, len=%d", st.Len())
	}
	if c.Mode() != ModeClosed {
		t.Fatalf("expected closed after submit, got %v", c.Mode())
	}
}

func TestSubmitTimeRequired(t *testing.T) {
	st := store.New()
	c := NewController(st, confirmWith(true))
	c.Open(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), nil)

	if _, err := c.Submit("p1", "d1", nil); !errors.Is(err, ErrTimeRequired) {
		t.Fatalf("expected ErrTimeRequired, got %v", err)
	}
	if st.Len() != 0 {
		t.Fatal("rejected submission must not mutate the store")
	}
	if c.Mode() != ModeCreate {
		t.Fatal("session should stay open after a rejected submission")
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	c := NewController(store.New(), confirmWith(true))
	at := time.Now()
	if _, err := c.Submit("p1", "d1", &at); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSubmitEditKeepsID(t *testing.T) {
	st := store.New()
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	existing := model.Appointment{
		ID: "a1", Start: start, End: start.Add(30 * time.Minute),
		PatientID: "p1", DoctorID: "d1",
	}
	if err := st.Add(existing); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	c := NewController(st, confirmWith(true))
	c.Open(start, &existing)
	if c.Mode() != ModeEdit {
		t.Fatalf("expected edit mode, got %v", c.Mode())
	}

	at := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	appt, err := c.Submit("p2", "d1", &at)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if appt.ID != "a1" {
		t.Fatalf("edit must keep the id, got %s", appt.ID)
	}
	got, _ := st.Get("a1")
	if got.PatientID != "p2" || got.Start.Hour() != 11 {
		t.Fatalf("store not updated: %+v", got)
	}
	if st.Len() != 1 {
		t.Fatalf("edit must not grow the store, len=%d", st.Len())
	}
}

func TestDeleteConfirmed(t *testing.T) {
	st := store.New()
	existing := model.Appointment{ID: "a1", Start: time.Now(), End: time.Now().Add(30 * time.Minute)}
	if err := st.Add(existing); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	c := NewController(st, confirmWith(true))
	c.Open(existing.Start, &existing)

	removed, err := c.Delete()
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	if st.Len() != 0 {
		t.Fatal("appointment should be removed")
	}
	if c.Mode() != ModeClosed {
		t.Fatal("expected closed after delete")
	}
}

func TestDeleteDeclined(t *testing.T) {
	st := store.New()
	existing := model.Appointment{ID: "a1", Start: time.Now(), End: time.Now().Add(30 * time.Minute)}
	if err := st.Add(existing); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	c := NewController(st, confirmWith(false))
	c.Open(existing.Start, &existing)

	removed, err := c.Delete()
	if err != nil || removed {
		t.Fatalf("declined delete should be a no-op: removed=%v err=%v", removed, err)
	}
	if st.Len() != 1 {
		t.Fatal("declined delete must not mutate the store")
	}
	if c.Mode() != ModeEdit {
		t.Fatal("declined delete should keep the session open")
	}
}

func TestDeleteRequiresEditMode(t *testing.T) {
	c := NewController(store.New(), confirmWith(true))
	c.Open(time.Now(), nil)
	if _, err := c.Delete(); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
}

func TestCancelDiscardsSession(t *testing.T) {
	st := store.New()
	c := NewController(st, confirmWith(true))
	c.Open(time.Now(), nil)
	c.Cancel()
	if c.Mode() != ModeClosed {
		t.Fatal("expected closed after cancel")
	}
	if st.Len() != 0 {
		t.Fatal("cancel must not mutate the store")
	}
}
