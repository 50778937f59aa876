// Package identity manages user accounts and their patient or doctor profiles.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// User maps to the users table. Every account is either a patient or a
// doctor; the matching profile row carries the role-specific fields.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Patient maps to the patients table.
type Patient struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Name           string    `db:"name" json:"name"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	MedicalHistory *string   `db:"medical_history" json:"medical_history,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Name           string    `db:"name" json:"name"`
	Specialization string    `db:"specialization" json:"specialization"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Profile bundles a user with their role-specific record.
type Profile struct {
	User    *User    `json:"user"`
	Patient *Patient `json:"patient,omitempty"`
	Doctor  *Doctor  `json:"doctor,omitempty"`
}
