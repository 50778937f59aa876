package identity

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/platform/auth"
)

// TxRunner executes fn inside a transaction. Production wiring uses db.InTx;
// tests pass the function straight through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	users    UserRepository
	patients PatientRepository
	doctors  DoctorRepository
	issuer   *auth.TokenIssuer
	inTx     TxRunner
}

func NewService(users UserRepository, patients PatientRepository, doctors DoctorRepository, issuer *auth.TokenIssuer) *Service {
	return &Service{
		users:    users,
		patients: patients,
		doctors:  doctors,
		issuer:   issuer,
		inTx:     passthroughTx,
	}
}

// SetTxRunner overrides how multi-row registrations are made atomic.
func (s *Service) SetTxRunner(tx TxRunner) { s.inTx = tx }

// RegisterInput carries everything needed to open an account.
type RegisterInput struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"password"`
	Role           string    `json:"role"`
	Name           string    `json:"name"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	Specialization string    `json:"specialization"`
}

// Register creates a user account plus its patient or doctor profile row.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if in.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %s", in.Email)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if in.Role != RolePatient && in.Role != RoleDoctor {
		return nil, fmt.Errorf("invalid role: %s", in.Role)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Role == RolePatient && in.DateOfBirth.IsZero() {
		return nil, fmt.Errorf("date_of_birth is required for patients")
	}
	if in.Role == RoleDoctor && in.Specialization == "" {
		return nil, fmt.Errorf("specialization is required for doctors")
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %s", in.Username)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %s", in.Email)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		switch in.Role {
		case RolePatient:
			return s.patients.Create(ctx, &Patient{
				UserID:      user.ID,
				Name:        in.Name,
				DateOfBirth: in.DateOfBirth,
			})
		case RoleDoctor:
			return s.doctors.Create(ctx, &Doctor{
				UserID:         user.ID,
				Name:           in.Name,
				Specialization: in.Specialization,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("invalid username or password")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, fmt.Errorf("invalid username or password")
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// GetProfile returns the user and their role-specific record.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	profile := &Profile{User: user}
	switch user.Role {
	case RolePatient:
		if p, err := s.patients.GetByUserID(ctx, userID); err == nil {
			profile.Patient = p
		}
	case RoleDoctor:
		if d, err := s.doctors.GetByUserID(ctx, userID); err == nil {
			profile.Doctor = d
		}
	}
	return profile, nil
}

// GetPatient returns one patient record.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// PatientForUser resolves the patient profile owned by a user account.
func (s *Service) PatientForUser(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return s.patients.GetByUserID(ctx, userID)
}

// DoctorForUser resolves the doctor profile owned by a user account.
func (s *Service) DoctorForUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

// ListDoctors returns doctors for appointment booking.
func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// ListPatients returns patients, a doctor-facing listing.
func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}
