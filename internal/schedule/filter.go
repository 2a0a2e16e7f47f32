package schedule

import "github.com/clinicdesk/schedcal/internal/model"

// MatchAll is the filter sentinel that matches every appointment. An empty
// filter value behaves the same way.
const MatchAll = "all"

// Filter narrows a collection to one patient and/or one doctor. Both fields
// are ANDed; MatchAll or "" on a field disables it.
type Filter struct {
	PatientID string
	DoctorID  string
}

func (f Filter) matches(a model.Appointment) bool {
	if f.PatientID != "" && f.PatientID != MatchAll && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != "" && f.DoctorID != MatchAll && a.DoctorID != f.DoctorID {
		return false
	}
	return true
}

// Apply returns the matching subsequence in the original order.
func (f Filter) Apply(list []model.Appointment) []model.Appointment {
	out := make([]model.Appointment, 0, len(list))
	for _, a := range list {
		if f.matches(a) {
			out = append(out, a)
		}
	}
	return out
}
