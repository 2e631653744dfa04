package kpi

import (
	"fmt"
	"time"
)

// Period is a calendar month, [Start, End) in UTC.
type Period struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Period {
	t = t.UTC()
	return NewPeriod(t.Year(), t.Month())
}

// NewPeriod builds the period of the given month.
func NewPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: start.Year(), Month: int(start.Month()), Start: start, End: start.AddDate(0, 1, 0)}
}

// ParsePeriod validates a month/year pair. Zero values fall back to now.
func ParsePeriod(month, year int, now time.Time) (Period, error) {
	current := MonthOf(now)
	if month == 0 {
		month = current.Month
	}
	if year == 0 {
		year = current.Year
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return Period{}, fmt.Errorf("year out of range")
	}
	return NewPeriod(year, time.Month(month)), nil
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// YearToDate returns January through the month containing now.
func YearToDate(now time.Time) []Period {
	current := MonthOf(now)
	out := make([]Period, 0, current.Month)
	for m := 1; m <= current.Month; m++ {
		out = append(out, NewPeriod(current.Year, time.Month(m)))
	}
	return out
}
