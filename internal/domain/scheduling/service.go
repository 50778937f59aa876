package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/domain/identity"
)

// ProfileDirectory resolves the patient or doctor profile behind a user
// account. Satisfied by identity.Service.
type ProfileDirectory interface {
	PatientForUser(ctx context.Context, userID uuid.UUID) (*identity.Patient, error)
	DoctorForUser(ctx context.Context, userID uuid.UUID) (*identity.Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type Service struct {
	appointments AppointmentRepository
	directory    ProfileDirectory
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, directory ProfileDirectory) *Service {
	return &Service{
		appointments: appointments,
		directory:    directory,
		now:          time.Now,
	}
}

// Create books a new appointment. The appointment starts scheduled and must
// be in the future.
func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if !a.ScheduledAt.After(s.now()) {
		return fmt.Errorf("scheduled_at must be in the future")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if a.Status != StatusScheduled {
		return fmt.Errorf("new appointments must be scheduled, got %q", a.Status)
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// Complete marks a scheduled appointment as completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted)
}

// Cancel marks a scheduled appointment as cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appointment not found")
	}
	if a.Terminal() {
		return nil, fmt.Errorf("appointment is already %s", a.Status)
	}
	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	return a, nil
}

// AddNotes attaches free-text notes to an appointment.
func (s *Service) AddNotes(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appointment not found")
	}
	if err := s.appointments.UpdateNotes(ctx, id, notes); err != nil {
		return nil, err
	}
	a.Notes = &notes
	return a, nil
}

// ListForUser returns appointments visible to the calling user: a patient
// sees their own, a doctor sees their schedule.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, role string, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	if params == nil {
		params = make(map[string]string)
	}
	switch role {
	case identity.RolePatient:
		p, err := s.directory.PatientForUser(ctx, userID)
		if err != nil {
			return nil, 0, fmt.Errorf("patient profile not found")
		}
		params["patient"] = p.ID.String()
	case identity.RoleDoctor:
		d, err := s.directory.DoctorForUser(ctx, userID)
		if err != nil {
			return nil, 0, fmt.Errorf("doctor profile not found")
		}
		params["doctor"] = d.ID.String()
	default:
		return nil, 0, fmt.Errorf("unknown role: %s", role)
	}
	return s.appointments.Search(ctx, params, limit, offset)
}

// DashboardFor builds the landing-view summary for a user.
func (s *Service) DashboardFor(ctx context.Context, userID uuid.UUID, role string) (*Dashboard, error) {
	owner := make(map[string]string)
	switch role {
	case identity.RolePatient:
		p, err := s.directory.PatientForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("patient profile not found")
		}
		owner["patient"] = p.ID.String()
	case identity.RoleDoctor:
		d, err := s.directory.DoctorForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("doctor profile not found")
		}
		owner["doctor"] = d.ID.String()
	default:
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	now := s.now().UTC().Format(time.RFC3339)

	upcomingParams := map[string]string{"status": StatusScheduled, "from": now}
	for k, v := range owner {
		upcomingParams[k] = v
	}
	upcoming, _, err := s.appointments.Search(ctx, upcomingParams, 10, 0)
	if err != nil {
		return nil, err
	}

	recentParams := map[string]string{"to": now}
	for k, v := range owner {
		recentParams[k] = v
	}
	recent, _, err := s.appointments.Search(ctx, recentParams, 10, 0)
	if err != nil {
		return nil, err
	}

	counts, err := s.appointments.CountByStatus(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Role:      role,
		Upcoming:  upcoming,
		Recent:    recent,
		Scheduled: counts[StatusScheduled],
		Completed: counts[StatusCompleted],
		Cancelled: counts[StatusCancelled],
	}, nil
}
