package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
	CountByStatus(ctx context.Context, params map[string]string) (map[string]int, error)
}
