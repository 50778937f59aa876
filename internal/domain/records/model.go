// Package records manages clinical notes and the running medical history
// kept on each patient.
package records

import (
	"time"

	"github.com/google/uuid"
)

// MedicalNote maps to the medical_notes table. The note body is also folded
// into the patient's medical_history text so the full narrative reads
// newest-first in one place.
type MedicalNote struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// History is a patient's medical narrative plus the structured note rows.
type History struct {
	PatientID uuid.UUID      `json:"patient_id"`
	Narrative string         `json:"narrative"`
	Notes     []*MedicalNote `json:"notes"`
}
