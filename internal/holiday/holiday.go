package holiday

import (
	"errors"
	"time"
)

// Entry marks one calendar day non-working. Date is a YYYY-MM-DD key, at most
// one entry per day.
type Entry struct {
	Date      string `json:"date"`
	Reason    string `json:"reason"`
	IsHoliday bool   `json:"isHoliday"`
}

var ErrBadDate = errors.New("date must be YYYY-MM-DD")

// ParseDate validates a registry date key.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return t, nil
}
