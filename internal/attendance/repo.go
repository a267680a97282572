package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists the attendance ledger in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, user_id, username, photo_url, photo_public_id, latitude, longitude, created_at`

// Insert writes a new record. The unique index on (user_id, day_bucket) turns the
// check-then-act race into ErrAlreadySubmitted instead of a second daily record.
func (r *Repository) Insert(ctx context.Context, rec Record, dayBucket string) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, user_id, username, photo_url, photo_public_id, latitude, longitude, day_bucket, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, rec.ID, rec.UserID, rec.Username, rec.PhotoURL, rec.PhotoPublicID, rec.Latitude, rec.Longitude, dayBucket, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrAlreadySubmitted
		}
		return Record{}, err
	}
	return rec, nil
}

// TodayFor returns a user's records within [from, to), oldest first.
func (r *Repository) TodayFor(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// ListByUser returns a user's full history, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// ListAll returns every record, optionally bounded by [from, to), newest first.
func (r *Repository) ListAll(ctx context.Context, from, to *time.Time) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records`
	args := []any{}
	clauses := []string{}
	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, "created_at >= $"+strconv.Itoa(len(args)))
	}
	if to != nil {
		args = append(args, *to)
		clauses = append(clauses, "created_at < $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// GetByID returns a single record.
func (r *Repository) GetByID(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id)
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.PhotoURL, &rec.PhotoPublicID,
		&rec.Latitude, &rec.Longitude, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// DeleteByID removes a single record.
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes every record a user owns and reports how many went.
func (r *Repository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Stats aggregates ledger counts for the window [from, to).
func (r *Repository) Stats(ctx context.Context, from, to time.Time) (Stats, error) {
	var s Stats
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2),
		       COUNT(DISTINCT user_id)
		FROM attendance_records
	`, from, to)
	if err := row.Scan(&s.TotalRecords, &s.TodayRecords, &s.UniqueUsers); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// AllPhotoRefs returns every referenced asset public id, for reconciliation.
func (r *Repository) AllPhotoRefs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT photo_public_id FROM attendance_records WHERE photo_public_id <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.PhotoURL, &rec.PhotoPublicID,
			&rec.Latitude, &rec.Longitude, &rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
