package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clinicdesk/schedcal/internal/model"
)

// Unknown is the display sentinel substituted for any identifier that does
// not resolve. Dangling references degrade to this string, they never fail.
const Unknown = "Unknown"

// Kind selects which directory a lookup runs against.
type Kind int

const (
	KindPatient Kind = iota
	KindDoctor
)

// Directory holds the read-only patient and doctor reference data. It is
// loaded once at startup and never mutated afterwards.
type Directory struct {
	patients []model.Patient
	doctors  []model.Doctor
	byKind   [2]map[string]string
}

// New builds a Directory from the given reference lists.
func New(patients []model.Patient, doctors []model.Doctor) *Directory {
	d := &Directory{
		patients: append([]model.Patient(nil), patients...),
		doctors:  append([]model.Doctor(nil), doctors...),
	}
	d.byKind[KindPatient] = make(map[string]string, len(patients))
	for _, p := range patients {
		d.byKind[KindPatient][p.ID] = p.Name
	}
	d.byKind[KindDoctor] = make(map[string]string, len(doctors))
	for _, doc := range doctors {
		d.byKind[KindDoctor][doc.ID] = doc.Name
	}
	return d
}

type fileSchema struct {
	Patients []model.Patient `yaml:"patients"`
	Doctors  []model.Doctor  `yaml:"doctors"`
}

// LoadFile reads patient/doctor reference data from a YAML file.
func LoadFile(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}
	var f fileSchema
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse directory file: %w", err)
	}
	return New(f.Patients, f.Doctors), nil
}

// Default returns the built-in reference data used when no directory file is
// configured.
func Default() *Directory {
	return New(
		[]model.Patient{
			{ID: "p1", Name: "John Doe"},
			{ID: "p2", Name: "Jane Smith"},
			{ID: "p3", Name: "Robert Brown"},
			{ID: "p4", Name: "Emily Davis"},
		},
		[]model.Doctor{
			{ID: "d1", Name: "Dr. Adams"},
			{ID: "d2", Name: "Dr. Baker"},
			{ID: "d3", Name: "Dr. Clark"},
		},
	)
}

// ResolveName maps an identifier to its display name, substituting the
// Unknown sentinel when the identifier is not found.
func (d *Directory) ResolveName(kind Kind, id string) string {
	if kind < 0 || int(kind) >= len(d.byKind) {
		return Unknown
	}
	if name, ok := d.byKind[kind][id]; ok {
		return name
	}
	return Unknown
}

// Patients returns the patient list in file order.
func (d *Directory) Patients() []model.Patient {
	return append([]model.Patient(nil), d.patients...)
}

// Doctors returns the doctor list in file order.
func (d *Directory) Doctors() []model.Doctor {
	return append([]model.Doctor(nil), d.doctors...)
}
