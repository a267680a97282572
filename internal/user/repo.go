package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, password_hash, role, enrollment_number, email, contact_number, profile_photo, created_at, updated_at`

// Insert writes a new account.
func (r *Repository) Insert(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, enrollment_number, email, contact_number, profile_photo)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.PasswordHash, u.Role, u.EnrollmentNumber, u.Email, u.ContactNumber, u.ProfilePhoto)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, mapConstraint(err)
	}
	return u, nil
}

// GetByID returns a single account.
func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

// GetByUsername returns the account with the given username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getBy(ctx, `username = $1`, username)
}

// GetByEnrollment returns the account with the given enrollment number.
func (r *Repository) GetByEnrollment(ctx context.Context, enrollment string) (User, error) {
	return r.getBy(ctx, `enrollment_number = $1`, enrollment)
}

func (r *Repository) getBy(ctx context.Context, clause string, arg any) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+clause, arg)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.EnrollmentNumber,
		&u.Email, &u.ContactNumber, &u.ProfilePhoto, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// List returns all accounts ordered by username.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.EnrollmentNumber,
			&u.Email, &u.ContactNumber, &u.ProfilePhoto, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// UpdateDetails overwrites contact identity fields; profile photo only when provided.
func (r *Repository) UpdateDetails(ctx context.Context, id string, enrollment, email, contact, profilePhoto *string) (User, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET enrollment_number = $2, email = $3, contact_number = $4,
		    profile_photo = COALESCE($5, profile_photo), updated_at = NOW()
		WHERE id = $1
	`, id, enrollment, email, contact, profilePhoto)
	if err != nil {
		return User{}, mapConstraint(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SyncProfile updates the identity fields an ID-card application carries.
func (r *Repository) SyncProfile(ctx context.Context, id, username string, enrollment, contact *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, enrollment_number = $3, contact_number = $4, updated_at = NOW()
		WHERE id = $1
	`, id, username, enrollment, contact)
	return mapConstraint(err)
}

// FindConflicting returns another user already holding the enrollment or contact
// number, or ErrNotFound when neither is taken.
func (r *Repository) FindConflicting(ctx context.Context, excludeID string, enrollment, contact *string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id <> $1
		  AND (($2::text IS NOT NULL AND enrollment_number = $2)
		    OR ($3::text IS NOT NULL AND contact_number = $3))
		LIMIT 1
	`, excludeID, enrollment, contact)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.EnrollmentNumber,
		&u.Email, &u.ContactNumber, &u.ProfilePhoto, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete removes an account. Attendance records must already be gone.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// mapConstraint converts Postgres unique violations into domain errors.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return ErrUsernameTaken
		case "users_enrollment_number_key":
			return ErrEnrollmentTaken
		case "users_contact_number_key":
			return ErrContactTaken
		}
		return ErrUsernameTaken
	}
	return err
}
