package schedule

import (
	"fmt"
	"time"

	"github.com/clinicdesk/schedcal/internal/directory"
	"github.com/clinicdesk/schedcal/internal/model"
)

// TimeLabeler renders an appointment start instant as the display time label
// carried on the projected event. Two variants exist because the desktop and
// mobile surfaces historically formatted times differently; call sites pick
// one explicitly.
type TimeLabeler func(t time.Time) string

// CompactTimeLabel renders 24-hour "H:MM" with zero-padded minutes, e.g.
// "9:05" and "14:30". Used by the compact (mobile) surface.
func CompactTimeLabel(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}

// LocalizedTimeLabel renders "hh:mm AM/PM", e.g. "02:30 PM". Used by the
// desktop surface.
func LocalizedTimeLabel(t time.Time) string {
	return t.Format("03:04 PM")
}

// Project derives the render-ready calendar event for one appointment. Pure:
// no side effects, deterministic given its inputs. Dangling directory
// references surface as the "Unknown" display name.
func Project(a model.Appointment, dir *directory.Directory, label TimeLabeler) model.CalendarEvent {
	patient := dir.ResolveName(directory.KindPatient, a.PatientID)
	doctor := dir.ResolveName(directory.KindDoctor, a.DoctorID)
	return model.CalendarEvent{
		ID:    a.ID,
		Title: patient + " with " + doctor,
		Start: a.Start,
		End:   a.End,
		Resource: model.EventResource{
			PatientName: patient,
			DoctorName:  doctor,
			TimeLabel:   label(a.Start),
		},
	}
}

// ProjectAll filters the collection and projects every surviving appointment,
// preserving order.
func ProjectAll(list []model.Appointment, f Filter, dir *directory.Directory, label TimeLabeler) []model.CalendarEvent {
	filtered := f.Apply(list)
	events := make([]model.CalendarEvent, 0, len(filtered))
	for _, a := range filtered {
		events = append(events, Project(a, dir, label))
	}
	return events
}
