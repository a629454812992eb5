package derive

import (
	"time"

	"github.com/julianstephens/goaltrack/internal/models"
)

// DaysInMonth returns the number of days in m.
func DaysInMonth(m models.Month) int {
	return m.Days()
}

// StartOffset is the weekday of the first of m, Sunday = 0. It is the number
// of padding cells before day 1 in a Sunday-first grid.
func StartOffset(m models.Month) int {
	return int(time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// CalendarGrid lays m out as Sunday-first weeks of seven cells. Padding cells
// are 0.
func CalendarGrid(m models.Month) [][]int {
	offset := StartOffset(m)
	days := m.Days()
	cells := offset + days
	if rem := cells % 7; rem != 0 {
		cells += 7 - rem
	}

	weeks := make([][]int, 0, cells/7)
	for w := 0; w < cells/7; w++ {
		week := make([]int, 7)
		for i := range week {
			day := w*7 + i - offset + 1
			if day >= 1 && day <= days {
				week[i] = day
			}
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// SelectableDays is the number of days of m that are on or before today.
func SelectableDays(m, today models.Month, todayDay int) int {
	switch {
	case m.Before(today):
		return m.Days()
	case m == today:
		return todayDay
	default:
		return 0
	}
}
