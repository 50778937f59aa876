package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/domain/identity"
)

type NoteRepository interface {
	Create(ctx context.Context, n *MedicalNote) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalNote, int, error)
}

// PatientStore is the slice of identity.PatientRepository this package needs.
type PatientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
	UpdateMedicalHistory(ctx context.Context, id uuid.UUID, history string) error
}

// Directory resolves profiles behind user accounts. Satisfied by
// identity.Service.
type Directory interface {
	PatientForUser(ctx context.Context, userID uuid.UUID) (*identity.Patient, error)
	DoctorForUser(ctx context.Context, userID uuid.UUID) (*identity.Doctor, error)
}
