// Package cleanup handles best-effort destruction of photo assets that outlived
// their ledger records. Destroys that fail in the request path are queued, retried
// by the worker, and persisted in pending_deletions so a crash loses nothing.
// Every pass is idempotent and safe to run repeatedly.
package cleanup

import (
	"context"
	"database/sql"
	"log"

	"rollcall/internal/queue"
)

// Destroyer deletes a stored asset by public id. Satisfied by *cloudinary.Client.
type Destroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// Janitor hands failed asset destroys to the cleanup queue.
type Janitor struct {
	q queue.Queue
}

// NewJanitor creates a janitor over a queue.
func NewJanitor(q queue.Queue) *Janitor {
	return &Janitor{q: q}
}

// DestroyLater enqueues an asset destroy for the worker. Publish failures are
// logged only; the caller's primary error always wins.
func (j *Janitor) DestroyLater(ctx context.Context, publicID string) {
	if j == nil || j.q == nil || publicID == "" {
		return
	}
	err := j.q.Publish(ctx, queue.Message{Type: queue.TypeAssetDestroy, Body: []byte(publicID)})
	if err != nil {
		log.Printf("cleanup enqueue failed for %s: %v", publicID, err)
	}
}

// Pending persists destroys that could not complete yet. Satisfied by
// *PendingStore.
type Pending interface {
	Add(ctx context.Context, publicID string) error
	List(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, publicID string) error
}

// PendingStore persists destroys the worker could not complete.
type PendingStore struct {
	db *sql.DB
}

// NewPendingStore creates a store.
func NewPendingStore(db *sql.DB) *PendingStore {
	return &PendingStore{db: db}
}

// Add records a public id awaiting deletion. Idempotent.
func (p *PendingStore) Add(ctx context.Context, publicID string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO pending_deletions (public_id)
		VALUES ($1)
		ON CONFLICT (public_id) DO NOTHING
	`, publicID)
	return err
}

// List returns every public id awaiting deletion.
func (p *PendingStore) List(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT public_id FROM pending_deletions ORDER BY queued_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Resolve removes a completed entry. No-op when absent.
func (p *PendingStore) Resolve(ctx context.Context, publicID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM pending_deletions WHERE public_id = $1`, publicID)
	return err
}

// RefSource lists asset public ids still referenced by live ledger records.
// Satisfied by *attendance.Repository.
type RefSource interface {
	AllPhotoRefs(ctx context.Context) ([]string, error)
}

// Sweeper drains the cleanup queue and reconciles persisted failures against
// the referenced set.
type Sweeper struct {
	assets  Destroyer
	pending Pending
	refs    RefSource
}

// NewSweeper creates a sweeper. A nil refs source skips the referenced-set
// check and treats every pending entry as an orphan.
func NewSweeper(assets Destroyer, pending Pending, refs RefSource) *Sweeper {
	return &Sweeper{assets: assets, pending: pending, refs: refs}
}

// Handle processes one queue message. Failed destroys land in pending_deletions.
func (s *Sweeper) Handle(ctx context.Context, msg queue.Message) {
	if msg.Type != queue.TypeAssetDestroy {
		return
	}
	publicID := string(msg.Body)
	if err := s.assets.Destroy(ctx, publicID); err != nil {
		log.Printf("asset destroy failed for %s: %v", publicID, err)
		if err := s.pending.Add(ctx, publicID); err != nil {
			log.Printf("pending deletion save failed for %s: %v", publicID, err)
		}
		return
	}
	_ = s.pending.Resolve(ctx, publicID)
	log.Printf("asset destroyed: %s", publicID)
}

// Sweep reconciles every persisted pending deletion against the referenced
// set. Entries whose asset a live record still references are kept (the asset
// survives, the stale entry is cleared); the rest are orphans and destroyed.
// Reports destroyed, kept, and still-failing counts.
func (s *Sweeper) Sweep(ctx context.Context) (destroyed, kept, remaining int, err error) {
	ids, err := s.pending.List(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	referenced := map[string]bool{}
	if s.refs != nil {
		refs, err := s.refs.AllPhotoRefs(ctx)
		if err != nil {
			return 0, 0, 0, err
		}
		for _, ref := range refs {
			referenced[ref] = true
		}
	}

	for _, id := range ids {
		if referenced[id] {
			if err := s.pending.Resolve(ctx, id); err != nil {
				log.Printf("sweep: resolve failed for %s: %v", id, err)
				remaining++
				continue
			}
			kept++
			continue
		}
		if err := s.assets.Destroy(ctx, id); err != nil {
			log.Printf("sweep: destroy failed for %s: %v", id, err)
			remaining++
			continue
		}
		if err := s.pending.Resolve(ctx, id); err != nil {
			log.Printf("sweep: resolve failed for %s: %v", id, err)
			remaining++
			continue
		}
		destroyed++
	}
	return destroyed, kept, remaining, nil
}
