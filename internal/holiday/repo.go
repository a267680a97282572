package holiday

import (
	"context"
	"database/sql"
)

// Repository persists the holiday registry in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertByDate creates the entry or overwrites its reason.
func (r *Repository) UpsertByDate(ctx context.Context, date, reason string) (Entry, error) {
	if _, err := ParseDate(date); err != nil {
		return Entry{}, err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO holidays (date, reason, is_holiday)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (date) DO UPDATE SET reason = EXCLUDED.reason, is_holiday = TRUE
	`, date, reason)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Date: date, Reason: reason, IsHoliday: true}, nil
}

// DeleteByDate removes the entry if present. Idempotent.
func (r *Repository) DeleteByDate(ctx context.Context, date string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = $1`, date)
	return err
}

// ListAll returns every entry. Unpaginated full scan, fine at this data scale.
func (r *Repository) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, reason, is_holiday FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Date, &e.Reason, &e.IsHoliday); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
