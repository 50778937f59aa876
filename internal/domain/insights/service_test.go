package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/domain/identity"
	"github.com/healthassist/healthassist/pkg/vitals"
)

type mockReportRepo struct{ reports []*Report }

func (m *mockReportRepo) Create(_ context.Context, r *Report) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.reports = append([]*Report{r}, m.reports...)
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockReportRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	var out []*Report
	for _, r := range m.reports {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

type mockInsightsDirectory struct{ patients map[uuid.UUID]*identity.Patient }

func (m *mockInsightsDirectory) PatientForUser(_ context.Context, userID uuid.UUID) (*identity.Patient, error) {
	p, ok := m.patients[userID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func sampleAssessment() vitals.Report {
	snap := vitals.MeasurementSnapshot{Systolic: 120, Diastolic: 80, HeartRate: 72, Temperature: 36.8}
	rep, _ := vitals.Analyze(snap, nil)
	return *rep
}

func TestSave_And_Get(t *testing.T) {
	repo := &mockReportRepo{}
	svc := NewService(repo, &mockInsightsDirectory{})

	patientID := uuid.New()
	rep, err := svc.Save(context.Background(), patientID, "maintain current regimen",
		sampleAssessment(), json.RawMessage(`{"age":45}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.ID == uuid.Nil {
		t.Error("expected generated id")
	}

	got, err := svc.Get(context.Background(), rep.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Insights != "maintain current regimen" {
		t.Errorf("unexpected insights: %q", got.Insights)
	}
}

func TestSave_Validation(t *testing.T) {
	svc := NewService(&mockReportRepo{}, &mockInsightsDirectory{})

	if _, err := svc.Save(context.Background(), uuid.Nil, "text", sampleAssessment(), nil); err == nil {
		t.Error("expected error for missing patient")
	}
	if _, err := svc.Save(context.Background(), uuid.New(), "", sampleAssessment(), nil); err == nil {
		t.Error("expected error for empty insights")
	}
}

func TestListForUser(t *testing.T) {
	repo := &mockReportRepo{}
	patient := &identity.Patient{ID: uuid.New(), UserID: uuid.New()}
	dir := &mockInsightsDirectory{patients: map[uuid.UUID]*identity.Patient{patient.UserID: patient}}
	svc := NewService(repo, dir)

	svc.Save(context.Background(), patient.ID, "report one", sampleAssessment(), nil)
	svc.Save(context.Background(), uuid.New(), "someone else", sampleAssessment(), nil)

	reports, total, err := svc.ListForUser(context.Background(), patient.UserID, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", total)
	}
	if reports[0].Insights != "report one" {
		t.Error("returned another patient's report")
	}

	if _, _, err := svc.ListForUser(context.Background(), uuid.New(), 20, 0); err == nil {
		t.Error("expected error for user with no patient profile")
	}
}
