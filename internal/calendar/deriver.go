// Package calendar classifies days for the attendance calendar view. It is a
// display-only join of the holiday registry and a user's ledger: the carry-over
// rule never creates or implies a second attendance record.
package calendar

import (
	"time"

	"rollcall/internal/attendance"
	"rollcall/internal/holiday"
)

// Status is the per-day classification.
type Status string

const (
	StatusPresent  Status = "present"
	StatusHoliday  Status = "holiday"
	StatusOrdinary Status = "ordinary"
)

// SundayReason is synthesized when only the implicit Sunday rule fires.
const SundayReason = "Sunday Holiday"

// DayView is the classification of one calendar day for one user.
type DayView struct {
	Date          string             `json:"date"`
	Status        Status             `json:"status"`
	Record        *attendance.Record `json:"record,omitempty"`
	IsPreviousDay bool               `json:"isPreviousDay,omitempty"`
	HolidayReason string             `json:"holidayReason,omitempty"`
}

// isNonWorkingDay is the single predicate combining the registry with the
// implicit Sunday rule.
func isNonWorkingDay(date time.Time, holidays map[string]holiday.Entry) (holiday.Entry, bool) {
	entry, listed := holidays[date.Format("2006-01-02")]
	if listed {
		return entry, true
	}
	if date.Weekday() == time.Sunday {
		return holiday.Entry{Date: date.Format("2006-01-02"), Reason: SundayReason, IsHoliday: true}, true
	}
	return holiday.Entry{}, false
}

// Classify derives one day's status. A same-day record wins; on a non-working
// day with no same-day record, a record from exactly the previous day carries
// over (one-day lookback only); otherwise the day is a holiday or ordinary.
func Classify(date time.Time, holidays map[string]holiday.Entry, records map[string]attendance.Record) DayView {
	key := date.Format("2006-01-02")
	view := DayView{Date: key, Status: StatusOrdinary}

	if rec, ok := records[key]; ok {
		view.Status = StatusPresent
		view.Record = &rec
		return view
	}

	entry, nonWorking := isNonWorkingDay(date, holidays)
	if !nonWorking {
		return view
	}

	prevKey := date.AddDate(0, 0, -1).Format("2006-01-02")
	if rec, ok := records[prevKey]; ok {
		view.Status = StatusPresent
		view.Record = &rec
		view.IsPreviousDay = true
		return view
	}

	view.Status = StatusHoliday
	view.HolidayReason = entry.Reason
	return view
}

// MonthView classifies every day of a month.
func MonthView(year int, month time.Month, holidays []holiday.Entry, records []attendance.Record, loc *time.Location) []DayView {
	holidayByDate := make(map[string]holiday.Entry, len(holidays))
	for _, e := range holidays {
		holidayByDate[e.Date] = e
	}

	recordByDate := make(map[string]attendance.Record)
	for _, r := range records {
		key := attendance.DayKey(r.CreatedAt, loc)
		if existing, ok := recordByDate[key]; !ok || r.CreatedAt.Before(existing.CreatedAt) {
			recordByDate[key] = r
		}
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := make([]DayView, 0, 31)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		days = append(days, Classify(d, holidayByDate, recordByDate))
	}
	return days
}
