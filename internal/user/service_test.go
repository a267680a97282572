package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/auth"
)

type fakeDirectory struct {
	byID map[string]User
	next int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{byID: map[string]User{}}
}

func (f *fakeDirectory) Insert(_ context.Context, u User) (User, error) {
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return User{}, ErrUsernameTaken
		}
	}
	f.next++
	u.ID = string(rune('a' + f.next))
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeDirectory) GetByID(_ context.Context, id string) (User, error) {
	u, ok := f.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) GetByUsername(_ context.Context, username string) (User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (f *fakeDirectory) GetByEnrollment(_ context.Context, enrollment string) (User, error) {
	for _, u := range f.byID {
		if u.EnrollmentNumber != nil && *u.EnrollmentNumber == enrollment {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (f *fakeDirectory) List(_ context.Context) ([]User, error) {
	var out []User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeDirectory) UpdateDetails(_ context.Context, id string, enrollment, email, contact, profilePhoto *string) (User, error) {
	u, ok := f.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.EnrollmentNumber, u.Email, u.ContactNumber = enrollment, email, contact
	if profilePhoto != nil {
		u.ProfilePhoto = profilePhoto
	}
	f.byID[id] = u
	return u, nil
}

func (f *fakeDirectory) SyncProfile(_ context.Context, id, username string, enrollment, contact *string) error {
	u, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Username, u.EnrollmentNumber, u.ContactNumber = username, enrollment, contact
	f.byID[id] = u
	return nil
}

func (f *fakeDirectory) FindConflicting(_ context.Context, excludeID string, enrollment, contact *string) (User, error) {
	for _, u := range f.byID {
		if u.ID == excludeID {
			continue
		}
		if enrollment != nil && u.EnrollmentNumber != nil && *u.EnrollmentNumber == *enrollment {
			return u, nil
		}
		if contact != nil && u.ContactNumber != nil && *u.ContactNumber == *contact {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (f *fakeDirectory) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakePurger struct {
	counts map[string]int64
}

func (f *fakePurger) DeleteByUser(_ context.Context, userID string) (int64, error) {
	n := f.counts[userID]
	f.counts[userID] = 0
	return n, nil
}

func TestSignupHashesPasswordAndForcesMemberRole(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, &fakePurger{counts: map[string]int64{}})

	u, err := svc.Signup(context.Background(), "asha", "secret123", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleMember, u.Role)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))
}

func TestSignupRejectsDuplicateUsername(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, &fakePurger{counts: map[string]int64{}})

	_, err := svc.Signup(context.Background(), "asha", "secret123", nil, nil, nil)
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), "asha", "other456", nil, nil, nil)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, &fakePurger{counts: map[string]int64{}})
	_, err := svc.Signup(context.Background(), "asha", "secret123", nil, nil, nil)
	require.NoError(t, err)

	u, err := svc.Login(context.Background(), "asha", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "asha", u.Username)

	_, err = svc.Login(context.Background(), "asha", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown users look the same as bad passwords.
	_, err = svc.Login(context.Background(), "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginByEnrollment(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, &fakePurger{counts: map[string]int64{}})
	enrollment := "EN-042"
	_, err := svc.Signup(context.Background(), "asha", "secret123", &enrollment, nil, nil)
	require.NoError(t, err)

	u, err := svc.LoginByEnrollment(context.Background(), "EN-042")
	require.NoError(t, err)
	assert.Equal(t, "asha", u.Username)

	_, err = svc.LoginByEnrollment(context.Background(), "EN-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascadesAttendance(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, &fakePurger{counts: map[string]int64{}})
	u, err := svc.Signup(context.Background(), "asha", "secret123", nil, nil, nil)
	require.NoError(t, err)

	purger := &fakePurger{counts: map[string]int64{u.ID: 5}}
	svc = NewService(dir, purger)

	purged, err := svc.Delete(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), purged)

	_, err = dir.GetByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnknownUser(t *testing.T) {
	svc := NewService(newFakeDirectory(), &fakePurger{counts: map[string]int64{}})
	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
