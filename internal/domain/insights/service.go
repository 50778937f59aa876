package insights

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/domain/identity"
	"github.com/healthassist/healthassist/pkg/vitals"
)

// Directory resolves the patient profile behind a user account.
type Directory interface {
	PatientForUser(ctx context.Context, userID uuid.UUID) (*identity.Patient, error)
}

type Service struct {
	reports   ReportRepository
	directory Directory
}

func NewService(reports ReportRepository, directory Directory) *Service {
	return &Service{reports: reports, directory: directory}
}

// Save persists a generated insight report for a patient.
func (s *Service) Save(ctx context.Context, patientID uuid.UUID, insights string, assessment vitals.Report, snapshot json.RawMessage) (*Report, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if insights == "" {
		return nil, fmt.Errorf("insights text is required")
	}
	rep := &Report{
		PatientID:  patientID,
		Insights:   insights,
		Assessment: assessment,
		Snapshot:   snapshot,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

// ListForPatient returns a patient's past reports, newest first.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return s.reports.ListByPatient(ctx, patientID, limit, offset)
}

// ListForUser returns the calling patient's own reports.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	patient, err := s.directory.PatientForUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("patient profile not found")
	}
	return s.reports.ListByPatient(ctx, patient.ID, limit, offset)
}
