package attendance

import (
	"errors"
	"time"
)

// Record is one accepted attendance submission. CreatedAt is immutable.
type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	PhotoURL      string    `json:"photo"`
	PhotoPublicID string    `json:"-"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Stats is the admin dashboard aggregate, computed fresh per request.
type Stats struct {
	TotalRecords int `json:"totalRecords"`
	TodayRecords int `json:"todayRecords"`
	UniqueUsers  int `json:"uniqueUsers"`
}

// DailyStatus reports a user's submissions for the current calendar day,
// ordered oldest first.
type DailyStatus struct {
	HasUploadedToday bool     `json:"hasUploadedToday"`
	TodayUploads     []Record `json:"todayUploads"`
}

var (
	ErrMissingPhoto       = errors.New("photo is required")
	ErrMissingLocation    = errors.New("location coordinates are required")
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	ErrAlreadySubmitted   = errors.New("attendance already uploaded today")
	ErrNoAssetStore       = errors.New("photo storage not configured")
	ErrNotFound           = errors.New("attendance record not found")
)

// Clock supplies "now". Injected so tests can pin the day window.
type Clock func() time.Time

// dayWindow returns the half-open [00:00, 24:00) interval containing now,
// in the reference location.
func dayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	t := now.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}

// DayKey buckets an instant into its calendar day in the reference location.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
