package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_submissions_accepted_total",
		Help: "Attendance submissions that produced a ledger record.",
	})
	submissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_submissions_rejected_total",
		Help: "Attendance submissions rejected before a record was written.",
	}, []string{"reason"})
)

// Ledger is what the gate needs from the attendance store. Satisfied by *Repository.
type Ledger interface {
	Insert(ctx context.Context, rec Record, dayBucket string) (Record, error)
	TodayFor(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
}

// AssetStore stages and destroys photo assets. Destroy is best-effort cleanup.
type AssetStore interface {
	Store(ctx context.Context, data []byte, filename string) (url, publicID string, err error)
	Destroy(ctx context.Context, publicID string) error
}

// Janitor takes over asset destroys that failed in the request path.
type Janitor interface {
	DestroyLater(ctx context.Context, publicID string)
}

// Gate enforces "at most one attendance submission per user per calendar day".
// The calendar day is computed from the injected clock in the reference location.
type Gate struct {
	ledger  Ledger
	assets  AssetStore
	janitor Janitor
	clock   Clock
	loc     *time.Location
}

// NewGate creates a gate. A nil clock falls back to time.Now, a nil location to UTC.
func NewGate(ledger Ledger, assets AssetStore, janitor Janitor, clock Clock, loc *time.Location) *Gate {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{ledger: ledger, assets: assets, janitor: janitor, clock: clock, loc: loc}
}

// CanSubmit reports whether a new submission would be accepted right now.
// Side-effect free.
func (g *Gate) CanSubmit(ctx context.Context, userID string) (bool, error) {
	from, to := dayWindow(g.clock(), g.loc)
	records, err := g.ledger.TodayFor(ctx, userID, from, to)
	if err != nil {
		return false, err
	}
	return len(records) == 0, nil
}

// StatusFor returns the caller's submissions for the current calendar day.
func (g *Gate) StatusFor(ctx context.Context, userID string) (DailyStatus, error) {
	from, to := dayWindow(g.clock(), g.loc)
	records, err := g.ledger.TodayFor(ctx, userID, from, to)
	if err != nil {
		return DailyStatus{}, err
	}
	return DailyStatus{
		HasUploadedToday: len(records) > 0,
		TodayUploads:     records,
	}, nil
}

// Submit validates, stages the photo, and appends a ledger record. Every failure
// after staging destroys the staged asset so no orphan survives the request.
func (g *Gate) Submit(ctx context.Context, userID, username string, photo []byte, latitude, longitude *float64) (Record, error) {
	if len(photo) == 0 {
		submissionsRejected.WithLabelValues("missing_photo").Inc()
		return Record{}, ErrMissingPhoto
	}
	if latitude == nil || longitude == nil {
		submissionsRejected.WithLabelValues("missing_location").Inc()
		return Record{}, ErrMissingLocation
	}
	if *latitude < -90 || *latitude > 90 || *longitude < -180 || *longitude > 180 {
		submissionsRejected.WithLabelValues("invalid_coordinates").Inc()
		return Record{}, ErrInvalidCoordinates
	}

	if g.assets == nil {
		return Record{}, ErrNoAssetStore
	}

	ok, err := g.CanSubmit(ctx, userID)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		submissionsRejected.WithLabelValues("already_submitted").Inc()
		return Record{}, ErrAlreadySubmitted
	}

	now := g.clock()
	url, publicID, err := g.assets.Store(ctx, photo, username+"-"+DayKey(now, g.loc))
	if err != nil {
		submissionsRejected.WithLabelValues("asset_store").Inc()
		return Record{}, err
	}

	rec, err := g.ledger.Insert(ctx, Record{
		UserID:        userID,
		Username:      username,
		PhotoURL:      url,
		PhotoPublicID: publicID,
		Latitude:      *latitude,
		Longitude:     *longitude,
		CreatedAt:     now,
	}, DayKey(now, g.loc))
	if err != nil {
		g.cleanupStaged(ctx, publicID)
		if errors.Is(err, ErrAlreadySubmitted) {
			submissionsRejected.WithLabelValues("already_submitted").Inc()
		} else {
			submissionsRejected.WithLabelValues("persistence").Inc()
		}
		return Record{}, err
	}

	submissionsAccepted.Inc()
	return rec, nil
}

// cleanupStaged destroys a staged asset. Failures are logged and handed to the
// janitor; the primary error still wins.
func (g *Gate) cleanupStaged(ctx context.Context, publicID string) {
	if err := g.assets.Destroy(ctx, publicID); err != nil {
		log.Printf("staged asset cleanup failed for %s: %v", publicID, err)
		if g.janitor != nil {
			g.janitor.DestroyLater(ctx, publicID)
		}
	}
}
