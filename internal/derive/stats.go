package derive

import (
	"github.com/julianstephens/goaltrack/internal/models"
)

// MonthlyStats aggregates a month of completions over the habits in scope.
type MonthlyStats struct {
	CompletionCount     int     `json:"completion_count" yaml:"completion_count"`
	PossibleCompletions int     `json:"possible_completions" yaml:"possible_completions"`
	CompletionRate      float64 `json:"completion_rate" yaml:"completion_rate"`
}

// Monthly computes stats for the qualifying habits of goals in month.
// CompletionRate is a percentage and is 0 when nothing was possible.
func Monthly(completions []models.HabitCompletion, goals []models.Goal, month models.Month) MonthlyStats {
	return MonthlyFromDays(CompletionsByDate(completions), goals, month.Days())
}

// MonthlyFromDays is Monthly over an already indexed (and possibly
// overlaid) month.
func MonthlyFromDays(byDate DayCompletions, goals []models.Goal, daysInMonth int) MonthlyStats {
	habits := HabitsInScope(goals)
	inScope := make(map[string]bool, len(habits))
	for _, h := range habits {
		inScope[h.ID] = true
	}

	count := 0
	for day, done := range byDate {
		if day < 1 || day > daysInMonth {
			continue
		}
		for id, ok := range done {
			if ok && inScope[id] {
				count++
			}
		}
	}

	stats := MonthlyStats{
		CompletionCount:     count,
		PossibleCompletions: daysInMonth * len(habits),
	}
	stats.CompletionRate = rate(stats.CompletionCount, stats.PossibleCompletions)
	return stats
}

func rate(n, possible int) float64 {
	if possible <= 0 {
		return 0
	}
	return float64(n) / float64(possible) * 100
}

// ChartPoint is the number of completions on one day.
type ChartPoint struct {
	Day             int `json:"day" yaml:"day"`
	CompletionCount int `json:"completion_count" yaml:"completion_count"`
}

// ChartSeries returns one point per day 1..daysInMonth, zero-filled.
func ChartSeries(byDate DayCompletions, daysInMonth int) []ChartPoint {
	out := make([]ChartPoint, daysInMonth)
	for i := range out {
		day := i + 1
		n := 0
		for _, done := range byDate[day] {
			if done {
				n++
			}
		}
		out[i] = ChartPoint{Day: day, CompletionCount: n}
	}
	return out
}

// HabitStat summarises one habit over a month.
type HabitStat struct {
	GoalID         string  `json:"goal_id" yaml:"goal_id"`
	HabitID        string  `json:"habit_id" yaml:"habit_id"`
	Title          string  `json:"title" yaml:"title"`
	DaysCompleted  int     `json:"days_completed" yaml:"days_completed"`
	CompletionRate float64 `json:"completion_rate" yaml:"completion_rate"`
	CurrentStreak  int     `json:"current_streak" yaml:"current_streak"`
}

// HabitStats summarises each qualifying habit of goals over days 1..through.
// through is today's day of month for the current month and the month's
// length for past months. The streak ends at through, or at the day before
// when through itself is not yet completed.
func HabitStats(goals []models.Goal, byDate DayCompletions, through int) []HabitStat {
	var out []HabitStat
	seen := make(map[string]bool)
	for _, g := range goals {
		for _, h := range QualifyingHabits(g) {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true

			done := 0
			for day := 1; day <= through; day++ {
				if byDate.Completed(day, h.ID) {
					done++
				}
			}
			out = append(out, HabitStat{
				GoalID:         g.ID,
				HabitID:        h.ID,
				Title:          h.Title,
				DaysCompleted:  done,
				CompletionRate: rate(done, through),
				CurrentStreak:  streak(byDate, h.ID, through),
			})
		}
	}
	return out
}

func streak(byDate DayCompletions, habitID string, through int) int {
	day := through
	if day >= 1 && !byDate.Completed(day, habitID) {
		day--
	}
	n := 0
	for ; day >= 1 && byDate.Completed(day, habitID); day-- {
		n++
	}
	return n
}
