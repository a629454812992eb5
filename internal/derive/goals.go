// Package derive turns cached collections and the current selection into
// display-ready structures. Every function is pure: the same inputs always
// give the same output and nothing here performs I/O.
package derive

import (
	"github.com/julianstephens/goaltrack/internal/models"
)

// QualifyingHabits returns g's habits without blank titles.
func QualifyingHabits(g models.Goal) []models.Habit {
	out := make([]models.Habit, 0, len(g.Habits))
	for _, h := range g.Habits {
		if !h.IsBlank() {
			out = append(out, h)
		}
	}
	return out
}

// QualifyingGoals returns the goals with at least one non-blank habit, with
// blank habits removed.
func QualifyingGoals(goals []models.Goal) []models.Goal {
	out := make([]models.Goal, 0, len(goals))
	for _, g := range goals {
		habits := QualifyingHabits(g)
		if len(habits) == 0 {
			continue
		}
		g.Habits = habits
		out = append(out, g)
	}
	return out
}

// CategoryGoals is one category and its qualifying goals.
type CategoryGoals struct {
	Category models.Category `json:"category" yaml:"category"`
	Goals    []models.Goal   `json:"goals" yaml:"goals"`
}

// GroupGoalsByCategory groups qualifying goals under their categories in
// category order. Categories without a qualifying goal are omitted.
func GroupGoalsByCategory(goals []models.Goal, categories []models.Category) []CategoryGoals {
	byCategory := make(map[string][]models.Goal)
	for _, g := range QualifyingGoals(goals) {
		if g.CategoryID == "" {
			continue
		}
		byCategory[g.CategoryID] = append(byCategory[g.CategoryID], g)
	}

	out := make([]CategoryGoals, 0, len(categories))
	for _, c := range categories {
		gs := byCategory[c.ID]
		if len(gs) == 0 {
			continue
		}
		out = append(out, CategoryGoals{Category: c, Goals: gs})
	}
	return out
}

// Uncategorized returns qualifying goals with no category or with a category
// that no longer exists.
func Uncategorized(goals []models.Goal, categories []models.Category) []models.Goal {
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	var out []models.Goal
	for _, g := range QualifyingGoals(goals) {
		if g.CategoryID == "" || !known[g.CategoryID] {
			out = append(out, g)
		}
	}
	return out
}

// GoalsInCategory returns the qualifying goals of categoryID.
func GoalsInCategory(groups []CategoryGoals, categoryID string) []models.Goal {
	for _, g := range groups {
		if g.Category.ID == categoryID {
			return g.Goals
		}
	}
	return nil
}

// HabitsInScope returns the qualifying habits of goals, each habit once.
func HabitsInScope(goals []models.Goal) []models.Habit {
	seen := make(map[string]bool)
	var out []models.Habit
	for _, g := range goals {
		for _, h := range QualifyingHabits(g) {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			out = append(out, h)
		}
	}
	return out
}
