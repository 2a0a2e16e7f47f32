package persist

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/schedcal/internal/directory"
	"github.com/clinicdesk/schedcal/internal/model"
)

// Seeder produces the initial collection written when the durable slot has
// never been established.
type Seeder func(now time.Time) []model.Appointment

// EmptySeed establishes the slot with an empty collection. This is the
// default policy.
func EmptySeed(time.Time) []model.Appointment {
	return []model.Appointment{}
}

// SampleSeed generates a week of pseudo-random appointments around now,
// one to three per day in working hours, drawn from the directory. The
// same seed always yields the same collection.
func SampleSeed(seed int64, dir *directory.Directory) Seeder {
	return func(now time.Time) []model.Appointment {
		rng := rand.New(rand.NewSource(seed))
		patients := dir.Patients()
		doctors := dir.Doctors()
		if len(patients) == 0 || len(doctors) == 0 {
			return []model.Appointment{}
		}

		var generated []model.Appointment
		for day := -3; day <= 3; day++ {
			date := now.AddDate(0, 0, day)
			count := rng.Intn(3) + 1
			for i := 0; i < count; i++ {
				hour := 9 + rng.Intn(8)
				start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
				generated = append(generated, model.Appointment{
					ID:        uuid.Must(uuid.NewRandomFromReader(rng)).String(),
					Start:     start,
					End:       start.Add(30 * time.Minute),
					PatientID: patients[rng.Intn(len(patients))].ID,
					DoctorID:  doctors[rng.Intn(len(doctors))].ID,
				})
			}
		}
		return generated
	}
}
