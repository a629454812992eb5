package models

import (
	"fmt"
	"time"
)

// Month identifies a calendar month independent of any time zone.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First returns midnight on the first day of the month in loc.
func (m Month) First(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Days returns the number of days in the month (28-31).
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (m Month) Next() Month {
	return MonthOf(time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

func (m Month) Prev() Month {
	return MonthOf(time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

// Contains reports whether t falls within the month, using t's own location.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Date formats the given day of the month as YYYY-MM-DD.
func (m Month) Date(day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", m.Year, int(m.Month), day)
}

// StartDate returns the first day of the month as YYYY-MM-DD.
func (m Month) StartDate() string {
	return m.Date(1)
}

// EndDate returns the last day of the month as YYYY-MM-DD.
func (m Month) EndDate() string {
	return m.Date(m.Days())
}
