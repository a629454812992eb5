package derive

import (
	"time"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/models"
)

// DayCompletions maps day of month to the habits completed that day.
type DayCompletions map[int]map[string]bool

// Completed reports whether habitID was completed on day.
func (d DayCompletions) Completed(day int, habitID string) bool {
	return d[day][habitID]
}

// Count returns the number of completed (day, habit) pairs.
func (d DayCompletions) Count() int {
	n := 0
	for _, habits := range d {
		for _, done := range habits {
			if done {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy.
func (d DayCompletions) Clone() DayCompletions {
	out := make(DayCompletions, len(d))
	for day, habits := range d {
		inner := make(map[string]bool, len(habits))
		for id, done := range habits {
			inner[id] = done
		}
		out[day] = inner
	}
	return out
}

func (d DayCompletions) set(day int, habitID string, done bool) {
	habits, ok := d[day]
	if !ok {
		habits = make(map[string]bool)
		d[day] = habits
	}
	if done {
		habits[habitID] = true
		return
	}
	delete(habits, habitID)
	if len(habits) == 0 {
		delete(d, day)
	}
}

// CompletionsByDate indexes one month's completions by day of month. A
// (day, habit) pair with several records is a single completion. Records with
// unparsable dates are skipped.
func CompletionsByDate(completions []models.HabitCompletion) DayCompletions {
	out := make(DayCompletions)
	for _, c := range completions {
		day, ok := dayOf(c.CompletionDate)
		if !ok || c.HabitID == "" {
			continue
		}
		out.set(day, c.HabitID, true)
	}
	return out
}

func dayOf(date string) (int, bool) {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return 0, false
	}
	return t.Day(), true
}

// RecordsFor returns every record for habitID on date.
func RecordsFor(completions []models.HabitCompletion, habitID, date string) []models.HabitCompletion {
	var out []models.HabitCompletion
	for _, c := range completions {
		if c.HabitID == habitID && c.CompletionDate == date {
			out = append(out, c)
		}
	}
	return out
}
