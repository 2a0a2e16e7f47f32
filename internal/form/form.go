// Package form owns the transient edit-session state behind the appointment
// form: which date was picked, whether an existing appointment is being
// edited, and the submit/delete/cancel transitions against the store.
package form

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/schedcal/internal/model"
	"github.com/clinicdesk/schedcal/internal/store"
)

var (
	ErrNoSession    = errors.New("form: no open session")
	ErrTimeRequired = errors.New("form: a time must be selected")
	ErrNotEditing   = errors.New("form: delete requires an edit session")
)

// Mode is the controller state.
type Mode int

const (
	ModeClosed Mode = iota
	ModeCreate
	ModeEdit
)

// Duration of every appointment booked through the form.
const slotDuration = 30 * time.Minute

// Confirmer answers a user-facing yes/no prompt. The delete transition runs
// only when it returns true. Injecting it keeps the controller independent
// of any presentation surface.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a plain function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Controller is the form state machine. It is bound to a single store and a
// single confirmation capability; one controller serves one UI surface.
type Controller struct {
	store   *store.Store
	confirm Confirmer

	mode    Mode
	date    time.Time
	editing model.Appointment
}

func NewController(st *store.Store, confirm Confirmer) *Controller {
	return &Controller{store: st, confirm: confirm}
}

// Mode reports the current controller state.
func (c *Controller) Mode() Mode { return c.mode }

// Editing returns the appointment bound to an edit session.
func (c *Controller) Editing() (model.Appointment, bool) {
	if c.mode != ModeEdit {
		return model.Appointment{}, false
	}
	return c.editing, true
}

// Open starts a session for the given date. A nil existing appointment opens
// a create session; otherwise the session edits that appointment.
func (c *Controller) Open(date time.Time, existing *model.Appointment) {
	c.date = date
	if existing == nil {
		c.mode = ModeCreate
		c.editing = model.Appointment{}
		return
	}
	c.mode = ModeEdit
	c.editing = *existing
}

// Submit validates the selection and commits it to the store, then closes
// the session. Start combines the session date with the chosen time of day,
// seconds and below zeroed; end is always start plus thirty minutes.
func (c *Controller) Submit(patientID, doctorID string, timeOfDay *time.Time) (model.Appointment, error) {
	if c.mode == ModeClosed {
		return model.Appointment{}, ErrNoSession
	}
	if timeOfDay == nil {
		return model.Appointment{}, ErrTimeRequired
	}

	start := time.Date(c.date.Year(), c.date.Month(), c.date.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, c.date.Location())
	appt := model.Appointment{
		Start:     start,
		End:       start.Add(slotDuration),
		PatientID: patientID,
		DoctorID:  doctorID,
	}

	var err error
	if c.mode == ModeEdit {
		appt.ID = c.editing.ID
		err = c.store.Update(appt)
	} else {
		appt.ID = uuid.NewString()
		err = c.store.Add(appt)
	}
	if err != nil {
		return model.Appointment{}, err
	}

	c.close()
	return appt, nil
}

// Delete removes the appointment bound to an edit session after the
// confirmation prompt is accepted. A declined prompt leaves the session open
// and the store untouched.
func (c *Controller) Delete() (bool, error) {
	if c.mode != ModeEdit {
		return false, ErrNotEditing
	}
	if !c.confirm.Confirm("Are you sure you want to delete this appointment?") {
		return false, nil
	}
	removed := c.store.Delete(c.editing.ID)
	c.close()
	return removed, nil
}

// Cancel discards the session without mutating the store.
func (c *Controller) Cancel() {
	c.close()
}

func (c *Controller) close() {
	c.mode = ModeClosed
	c.editing = model.Appointment{}
	c.date = time.Time{}
}
