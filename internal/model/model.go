package model

import "time"

// Appointment links one patient and one doctor over a time interval.
// Start must precede End; the form controller always books 30-minute
// intervals, but records hydrated from the durable slot are taken as-is.
type Appointment struct {
	ID        string    `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
}

// Patient is read-only directory reference data.
type Patient struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Doctor is read-only directory reference data.
type Doctor struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// EventResource is the display payload attached to a calendar event.
type EventResource struct {
	PatientName string `json:"patient"`
	DoctorName  string `json:"doctor"`
	TimeLabel   string `json:"time"`
}

// CalendarEvent is the render-ready projection of an Appointment. It is
// derived on every projection pass and never persisted.
type CalendarEvent struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Resource EventResource `json:"resource"`
}
