package idcard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"rollcall/internal/user"
)

// Applications is what the service needs from storage. Satisfied by *Repository.
type Applications interface {
	GetByStudent(ctx context.Context, studentID string) (Card, error)
	GetByID(ctx context.Context, id string) (Card, error)
	Upsert(ctx context.Context, c Card) (Card, error)
	UpdateStatus(ctx context.Context, c Card) (Card, error)
	ListAll(ctx context.Context, status string) ([]Card, error)
}

// InstitutionStore holds the singleton issuing-institution profile. Satisfied
// by *Repository.
type InstitutionStore interface {
	GetInstitution(ctx context.Context) (Institution, error)
	UpdateInstitution(ctx context.Context, name, address, sealImage, principalSignature *string) (Institution, error)
}

// ProfileSync keeps the user directory in step with an application.
type ProfileSync interface {
	FindConflicting(ctx context.Context, excludeID string, enrollment, contact *string) (user.User, error)
	SyncProfile(ctx context.Context, id, username string, enrollment, contact *string) error
}

// Service runs the pending/approved/rejected workflow.
type Service struct {
	apps     Applications
	inst     InstitutionStore
	profiles ProfileSync
	validate *validator.Validate
	clock    func() time.Time
}

// NewService creates a service.
func NewService(apps Applications, inst InstitutionStore, profiles ProfileSync) *Service {
	return &Service{
		apps:     apps,
		inst:     inst,
		profiles: profiles,
		validate: validator.New(),
		clock:    time.Now,
	}
}

// Institution returns the issuing-institution profile.
func (s *Service) Institution(ctx context.Context) (Institution, error) {
	return s.inst.GetInstitution(ctx)
}

// UpdateInstitution applies admin edits to the profile.
func (s *Service) UpdateInstitution(ctx context.Context, name, address, sealImage, principalSignature *string) (Institution, error) {
	return s.inst.UpdateInstitution(ctx, name, address, sealImage, principalSignature)
}

// Apply creates or updates the caller's application. Any edit resets the status
// to pending and re-syncs the user's profile identity fields.
func (s *Service) Apply(ctx context.Context, studentID string, personal PersonalDetails, academic AcademicDetails, uploads Uploads) (Card, error) {
	if err := s.validate.Struct(personal); err != nil {
		return Card{}, err
	}
	if err := s.validate.Struct(academic); err != nil {
		return Card{}, err
	}

	enrollment := &academic.EnrollmentNumber
	mobile := &personal.MobileNumber
	if conflict, err := s.profiles.FindConflicting(ctx, studentID, enrollment, mobile); err == nil {
		if conflict.EnrollmentNumber != nil && *conflict.EnrollmentNumber == academic.EnrollmentNumber {
			return Card{}, errors.New("enrollment number already registered to another student")
		}
		return Card{}, errors.New("mobile number already registered to another student")
	} else if !errors.Is(err, user.ErrNotFound) {
		return Card{}, err
	}

	if err := s.profiles.SyncProfile(ctx, studentID, personal.Name, enrollment, mobile); err != nil {
		return Card{}, err
	}

	existing, err := s.apps.GetByStudent(ctx, studentID)
	switch {
	case err == nil:
		existing.Personal = personal
		existing.Academic = academic
		if uploads.Photo != "" {
			existing.Uploads.Photo = uploads.Photo
		}
		if uploads.Signature != "" {
			existing.Uploads.Signature = uploads.Signature
		}
		existing.Status = StatusPending
		existing.RejectionReason = nil
		existing.ApprovalDate = nil
		return s.apps.Upsert(ctx, existing)
	case errors.Is(err, ErrNotFound):
		if uploads.Photo == "" {
			return Card{}, ErrPhotoRequired
		}
		if academic.AdmissionNumber == "" {
			academic.AdmissionNumber = generateAdmissionNumber(s.clock())
		}
		return s.apps.Upsert(ctx, Card{
			StudentID: studentID,
			Personal:  personal,
			Academic:  academic,
			Uploads:   uploads,
			Status:    StatusPending,
		})
	default:
		return Card{}, err
	}
}

// GetMine returns the caller's application.
func (s *Service) GetMine(ctx context.Context, studentID string) (Card, error) {
	return s.apps.GetByStudent(ctx, studentID)
}

// ListAll returns applications, optionally filtered by status.
func (s *Service) ListAll(ctx context.Context, status string) ([]Card, error) {
	if status != "" && status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidStatus
	}
	return s.apps.ListAll(ctx, status)
}

// UpdateStatus applies an admin review decision. Approving stamps the approval
// date and clears the rejection reason; rejecting does the reverse; resetting to
// pending clears both.
func (s *Service) UpdateStatus(ctx context.Context, id, status, rejectionReason string) (Card, error) {
	card, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return Card{}, err
	}

	switch status {
	case StatusApproved:
		now := s.clock()
		card.ApprovalDate = &now
		card.RejectionReason = nil
	case StatusRejected:
		card.RejectionReason = &rejectionReason
		card.ApprovalDate = nil
	case StatusPending:
		card.RejectionReason = nil
		card.ApprovalDate = nil
	default:
		return Card{}, ErrInvalidStatus
	}
	card.Status = status
	return s.apps.UpdateStatus(ctx, card)
}

func generateAdmissionNumber(now time.Time) string {
	ms := fmt.Sprintf("%d", now.UnixMilli())
	return "ADM-" + ms[len(ms)-6:]
}
