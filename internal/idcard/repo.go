package idcard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// Repository persists ID-card applications in Postgres. Nested details live in
// jsonb columns since the API treats them as opaque documents.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const cardColumns = `id, student_id, personal, academic, photo_url, signature_url, status, rejection_reason, approval_date, created_at, updated_at`

// GetByStudent returns a student's application.
func (r *Repository) GetByStudent(ctx context.Context, studentID string) (Card, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM id_cards WHERE student_id = $1`, studentID)
	return scanCard(row)
}

// GetByID returns a single application.
func (r *Repository) GetByID(ctx context.Context, id string) (Card, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM id_cards WHERE id = $1`, id)
	return scanCard(row)
}

// Upsert creates or replaces a student's application.
func (r *Repository) Upsert(ctx context.Context, c Card) (Card, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	personal, err := json.Marshal(c.Personal)
	if err != nil {
		return Card{}, err
	}
	academic, err := json.Marshal(c.Academic)
	if err != nil {
		return Card{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO id_cards (id, student_id, personal, academic, photo_url, signature_url, status, rejection_reason, approval_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (student_id) DO UPDATE SET
			personal = EXCLUDED.personal,
			academic = EXCLUDED.academic,
			photo_url = EXCLUDED.photo_url,
			signature_url = EXCLUDED.signature_url,
			status = EXCLUDED.status,
			rejection_reason = EXCLUDED.rejection_reason,
			approval_date = EXCLUDED.approval_date,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, c.ID, c.StudentID, personal, academic, c.Uploads.Photo, c.Uploads.Signature,
		c.Status, c.RejectionReason, c.ApprovalDate)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Card{}, err
	}
	return c, nil
}

// UpdateStatus applies a reviewed status.
func (r *Repository) UpdateStatus(ctx context.Context, c Card) (Card, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE id_cards
		SET status = $2, rejection_reason = $3, approval_date = $4, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Status, c.RejectionReason, c.ApprovalDate)
	if err != nil {
		return Card{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Card{}, ErrNotFound
	}
	return r.GetByID(ctx, c.ID)
}

// ListAll returns applications, optionally filtered by status, newest first.
func (r *Repository) ListAll(ctx context.Context, status string) ([]Card, error) {
	query := `SELECT ` + cardColumns + ` FROM id_cards`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// GetInstitution returns the singleton profile, creating the default row on
// first access.
func (r *Repository) GetInstitution(ctx context.Context) (Institution, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO institution (id, name) VALUES (1, 'Govt. Penchvalley College Parasiya')
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return Institution{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT name, address, seal_image, principal_signature, updated_at FROM institution WHERE id = 1
	`)
	var inst Institution
	if err := row.Scan(&inst.Name, &inst.Address, &inst.SealImage, &inst.PrincipalSignature, &inst.UpdatedAt); err != nil {
		return Institution{}, err
	}
	return inst, nil
}

// UpdateInstitution overwrites provided profile fields, keeping the rest.
func (r *Repository) UpdateInstitution(ctx context.Context, name, address, sealImage, principalSignature *string) (Institution, error) {
	if _, err := r.GetInstitution(ctx); err != nil {
		return Institution{}, err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE institution
		SET name = COALESCE($1, name),
		    address = COALESCE($2, address),
		    seal_image = COALESCE($3, seal_image),
		    principal_signature = COALESCE($4, principal_signature),
		    updated_at = NOW()
		WHERE id = 1
	`, name, address, sealImage, principalSignature)
	if err != nil {
		return Institution{}, err
	}
	return r.GetInstitution(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (Card, error) {
	var c Card
	var personal, academic []byte
	err := row.Scan(&c.ID, &c.StudentID, &personal, &academic, &c.Uploads.Photo, &c.Uploads.Signature,
		&c.Status, &c.RejectionReason, &c.ApprovalDate, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, err
	}
	if err := json.Unmarshal(personal, &c.Personal); err != nil {
		return Card{}, err
	}
	if err := json.Unmarshal(academic, &c.Academic); err != nil {
		return Card{}, err
	}
	return c, nil
}
