// Package scheduling manages appointments between patients and doctors.
package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. An appointment starts scheduled and may move to
// completed or cancelled; both are terminal.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment maps to the appointments table.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status      string    `db:"status" json:"status"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the appointment can no longer change state.
func (a *Appointment) Terminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled
}

// Dashboard summarises a user's appointments for the landing view.
type Dashboard struct {
	Role      string         `json:"role"`
	Upcoming  []*Appointment `json:"upcoming"`
	Recent    []*Appointment `json:"recent"`
	Scheduled int            `json:"scheduled_count"`
	Completed int            `json:"completed_count"`
	Cancelled int            `json:"cancelled_count"`
}
