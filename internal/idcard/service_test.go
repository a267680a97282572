package idcard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/user"
)

type fakeApps struct {
	byStudent map[string]Card
	next      int
}

func newFakeApps() *fakeApps {
	return &fakeApps{byStudent: map[string]Card{}}
}

func (f *fakeApps) GetByStudent(_ context.Context, studentID string) (Card, error) {
	c, ok := f.byStudent[studentID]
	if !ok {
		return Card{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeApps) GetByID(_ context.Context, id string) (Card, error) {
	for _, c := range f.byStudent {
		if c.ID == id {
			return c, nil
		}
	}
	return Card{}, ErrNotFound
}

func (f *fakeApps) Upsert(_ context.Context, c Card) (Card, error) {
	if c.ID == "" {
		f.next++
		c.ID = string(rune('a' + f.next))
	}
	f.byStudent[c.StudentID] = c
	return c, nil
}

func (f *fakeApps) UpdateStatus(_ context.Context, c Card) (Card, error) {
	existing, err := f.GetByID(context.Background(), c.ID)
	if err != nil {
		return Card{}, err
	}
	existing.Status = c.Status
	existing.RejectionReason = c.RejectionReason
	existing.ApprovalDate = c.ApprovalDate
	f.byStudent[existing.StudentID] = existing
	return existing, nil
}

func (f *fakeApps) ListAll(_ context.Context, status string) ([]Card, error) {
	var out []Card
	for _, c := range f.byStudent {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	conflict *user.User
	synced   bool
}

func (f *fakeProfiles) FindConflicting(_ context.Context, _ string, _, _ *string) (user.User, error) {
	if f.conflict != nil {
		return *f.conflict, nil
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeProfiles) SyncProfile(_ context.Context, _, _ string, _, _ *string) error {
	f.synced = true
	return nil
}

func validPersonal() PersonalDetails {
	return PersonalDetails{
		Name:         "Asha Verma",
		Gender:       "Female",
		DOB:          "2004-07-01",
		Category:     "General",
		FatherName:   "R Verma",
		MotherName:   "S Verma",
		Address:      "Parasia",
		MobileNumber: "9876543210",
	}
}

func validAcademic() AcademicDetails {
	return AcademicDetails{
		Course:           "BSc",
		Session:          "2023-2024",
		AdmissionDate:    "2023-07-15",
		EnrollmentNumber: "EN-042",
	}
}

func newTestService(apps *fakeApps, profiles *fakeProfiles) *Service {
	svc := NewService(apps, nil, profiles)
	svc.clock = func() time.Time { return time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestApplyCreatesPendingApplication(t *testing.T) {
	apps := newFakeApps()
	profiles := &fakeProfiles{}
	svc := newTestService(apps, profiles)

	card, err := svc.Apply(context.Background(), "s1", validPersonal(), validAcademic(), Uploads{Photo: "https://cdn/photo.jpg"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, card.Status)
	assert.True(t, profiles.synced)
	assert.NotEmpty(t, card.Academic.AdmissionNumber)
	assert.Contains(t, card.Academic.AdmissionNumber, "ADM-")
}

func TestApplyRequiresPhotoOnCreate(t *testing.T) {
	svc := newTestService(newFakeApps(), &fakeProfiles{})
	_, err := svc.Apply(context.Background(), "s1", validPersonal(), validAcademic(), Uploads{})
	assert.ErrorIs(t, err, ErrPhotoRequired)
}

func TestApplyValidatesDetails(t *testing.T) {
	svc := newTestService(newFakeApps(), &fakeProfiles{})

	bad := validPersonal()
	bad.Gender = "unknown"
	_, err := svc.Apply(context.Background(), "s1", bad, validAcademic(), Uploads{Photo: "https://cdn/photo.jpg"})
	assert.Error(t, err)

	missing := validAcademic()
	missing.EnrollmentNumber = ""
	_, err = svc.Apply(context.Background(), "s1", validPersonal(), missing, Uploads{Photo: "https://cdn/photo.jpg"})
	assert.Error(t, err)
}

func TestApplyRejectsEnrollmentConflict(t *testing.T) {
	enrollment := "EN-042"
	other := user.User{ID: "s2", EnrollmentNumber: &enrollment}
	svc := newTestService(newFakeApps(), &fakeProfiles{conflict: &other})

	_, err := svc.Apply(context.Background(), "s1", validPersonal(), validAcademic(), Uploads{Photo: "https://cdn/photo.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrollment number already registered")
}

func TestEditResetsToPendingAndKeepsUploads(t *testing.T) {
	apps := newFakeApps()
	svc := newTestService(apps, &fakeProfiles{})

	card, err := svc.Apply(context.Background(), "s1", validPersonal(), validAcademic(), Uploads{Photo: "https://cdn/photo.jpg"})
	require.NoError(t, err)

	approved, err := svc.UpdateStatus(context.Background(), card.ID, StatusApproved, "")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovalDate)

	// Editing an approved card resets it to pending and keeps the old photo.
	edited, err := svc.Apply(context.Background(), "s1", validPersonal(), validAcademic(), Uploads{})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, edited.Status)
	assert.Equal(t, "https://cdn/photo.jpg", edited.Uploads.Photo)
	assert.Nil(t, edited.ApprovalDate)
}

func TestUpdateStatusTransitions(t *testing.T) {
	apps := newFakeApps()
	svc := newTestService(apps, &fakeProfiles{})
	card, err := svc.Apply(context.Background(), "s1", validPersonal(), validAcademic(), Uploads{Photo: "https://cdn/photo.jpg"})
	require.NoError(t, err)

	rejected, err := svc.UpdateStatus(context.Background(), card.ID, StatusRejected, "photo too blurry")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "photo too blurry", *rejected.RejectionReason)
	assert.Nil(t, rejected.ApprovalDate)

	approved, err := svc.UpdateStatus(context.Background(), card.ID, StatusApproved, "")
	require.NoError(t, err)
	assert.Nil(t, approved.RejectionReason)
	require.NotNil(t, approved.ApprovalDate)

	pending, err := svc.UpdateStatus(context.Background(), card.ID, StatusPending, "")
	require.NoError(t, err)
	assert.Nil(t, pending.RejectionReason)
	assert.Nil(t, pending.ApprovalDate)

	_, err = svc.UpdateStatus(context.Background(), card.ID, "archived", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListAllRejectsUnknownStatusFilter(t *testing.T) {
	svc := newTestService(newFakeApps(), &fakeProfiles{})
	_, err := svc.ListAll(context.Background(), "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
