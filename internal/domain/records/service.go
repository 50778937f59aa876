package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TxRunner executes fn inside a transaction; tests pass the function through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	notes     NoteRepository
	patients  PatientStore
	directory Directory
	inTx      TxRunner
	now       func() time.Time
}

func NewService(notes NoteRepository, patients PatientStore, directory Directory) *Service {
	return &Service{
		notes:     notes,
		patients:  patients,
		directory: directory,
		inTx:      passthroughTx,
		now:       time.Now,
	}
}

// SetTxRunner overrides how the note row and history update are made atomic.
func (s *Service) SetTxRunner(tx TxRunner) { s.inTx = tx }

// AddNote records a doctor's note against a patient. The note is stored as a
// row and a "[YYYY-MM-DD HH:MM] Dr. Name: note" line is prepended to the
// patient's narrative, newest entry first.
func (s *Service) AddNote(ctx context.Context, patientID, doctorUserID uuid.UUID, text string) (*MedicalNote, error) {
	if text == "" {
		return nil, fmt.Errorf("note text is required")
	}

	doctor, err := s.directory.DoctorForUser(ctx, doctorUserID)
	if err != nil {
		return nil, fmt.Errorf("doctor profile not found")
	}
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}

	entry := fmt.Sprintf("[%s] Dr. %s: %s", s.now().Format("2006-01-02 15:04"), doctor.Name, text)
	narrative := entry
	if patient.MedicalHistory != nil && *patient.MedicalHistory != "" {
		narrative = entry + "\n" + *patient.MedicalHistory
	}

	note := &MedicalNote{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Body:      text,
	}
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.notes.Create(ctx, note); err != nil {
			return err
		}
		return s.patients.UpdateMedicalHistory(ctx, patient.ID, narrative)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListNotes returns a patient's structured note rows, newest first.
func (s *Service) ListNotes(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalNote, int, error) {
	return s.notes.ListByPatient(ctx, patientID, limit, offset)
}

// HistoryForPatient returns the narrative plus note rows for one patient.
func (s *Service) HistoryForPatient(ctx context.Context, patientID uuid.UUID) (*History, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}
	notes, _, err := s.notes.ListByPatient(ctx, patientID, 100, 0)
	if err != nil {
		return nil, err
	}
	h := &History{PatientID: patient.ID, Notes: notes}
	if patient.MedicalHistory != nil {
		h.Narrative = *patient.MedicalHistory
	}
	return h, nil
}

// HistoryForUser returns the calling patient's own history.
func (s *Service) HistoryForUser(ctx context.Context, userID uuid.UUID) (*History, error) {
	patient, err := s.directory.PatientForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("patient profile not found")
	}
	return s.HistoryForPatient(ctx, patient.ID)
}
