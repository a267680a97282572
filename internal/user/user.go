package user

import (
	"errors"
	"time"
)

// User is a department account. PasswordHash never serializes.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	PasswordHash     string    `json:"-"`
	Role             string    `json:"role"`
	EnrollmentNumber *string   `json:"enrollmentNumber,omitempty"`
	Email            *string   `json:"email,omitempty"`
	ContactNumber    *string   `json:"contactNumber,omitempty"`
	ProfilePhoto     *string   `json:"profilePhoto,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEnrollmentTaken    = errors.New("enrollment number already registered")
	ErrContactTaken       = errors.New("contact number already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
