package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/auth"
)

// Directory is what the service needs from storage. Satisfied by *Repository.
type Directory interface {
	Insert(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEnrollment(ctx context.Context, enrollment string) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateDetails(ctx context.Context, id string, enrollment, email, contact, profilePhoto *string) (User, error)
	SyncProfile(ctx context.Context, id, username string, enrollment, contact *string) error
	FindConflicting(ctx context.Context, excludeID string, enrollment, contact *string) (User, error)
	Delete(ctx context.Context, id string) error
}

// LedgerPurger removes a user's attendance records ahead of account deletion.
type LedgerPurger interface {
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Service implements account lifecycle on top of a Directory.
type Service struct {
	dir    Directory
	ledger LedgerPurger
}

// NewService creates a service.
func NewService(dir Directory, ledger LedgerPurger) *Service {
	return &Service{dir: dir, ledger: ledger}
}

// Signup registers a public self-service account. Role is always member.
func (s *Service) Signup(ctx context.Context, username, password string, enrollment, email, contact *string) (User, error) {
	if username == "" || password == "" {
		return User{}, errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.dir.Insert(ctx, User{
		Username:         username,
		PasswordHash:     string(hash),
		Role:             auth.RoleMember,
		EnrollmentNumber: enrollment,
		Email:            email,
		ContactNumber:    contact,
	})
}

// AdminCreate registers an account with an explicit role.
func (s *Service) AdminCreate(ctx context.Context, username, password, role string) (User, error) {
	if username == "" || password == "" {
		return User{}, errors.New("username and password are required")
	}
	if role != auth.RoleAdmin && role != auth.RoleMember {
		role = auth.RoleMember
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.dir.Insert(ctx, User{Username: username, PasswordHash: string(hash), Role: role})
}

// Login verifies a username/password pair.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	u, err := s.dir.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// LoginByEnrollment is the passwordless student quick login.
func (s *Service) LoginByEnrollment(ctx context.Context, enrollment string) (User, error) {
	if enrollment == "" {
		return User{}, errors.New("enrollment number required")
	}
	return s.dir.GetByEnrollment(ctx, enrollment)
}

// GetByID returns a single account.
func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.dir.GetByID(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.dir.List(ctx)
}

// UpdateDetails applies an admin edit of contact identity fields.
func (s *Service) UpdateDetails(ctx context.Context, id string, enrollment, email, contact, profilePhoto *string) (User, error) {
	return s.dir.UpdateDetails(ctx, id, enrollment, email, contact, profilePhoto)
}

// Delete removes an account and every attendance record it owns. Dependent
// records go first so a crash in between leaves a retryable half-state rather
// than orphaned records pointing at a missing user.
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	if _, err := s.dir.GetByID(ctx, id); err != nil {
		return 0, err
	}
	purged, err := s.ledger.DeleteByUser(ctx, id)
	if err != nil {
		return purged, err
	}
	return purged, s.dir.Delete(ctx, id)
}
