package derive

import (
	"github.com/julianstephens/goaltrack/internal/models"
)

// ApplyCompletionOverlay returns byDate with pending toggles in month applied.
// byDate is not modified.
func ApplyCompletionOverlay(byDate DayCompletions, deltas []models.CompletionDelta, month models.Month) DayCompletions {
	if len(deltas) == 0 {
		return byDate
	}
	out := byDate.Clone()
	prefix := month.String()
	for _, d := range deltas {
		if len(d.Date) < len(prefix) || d.Date[:len(prefix)] != prefix {
			continue
		}
		day, ok := dayOf(d.Date)
		if !ok {
			continue
		}
		out.set(day, d.HabitID, d.Completed)
	}
	return out
}

// ApplyCategoryOverlay returns categories with pending creates, renames and
// deletes applied, in order.
func ApplyCategoryOverlay(categories []models.Category, deltas []models.CategoryDelta) []models.Category {
	out := append([]models.Category(nil), categories...)
	for _, d := range deltas {
		switch d.Op {
		case models.DeltaCreate:
			out = append(out, d.Category)
		case models.DeltaUpdate:
			for i := range out {
				if out[i].ID == d.Category.ID {
					out[i] = d.Category
				}
			}
		case models.DeltaDelete:
			out = removeCategory(out, d.Category.ID)
		}
	}
	return out
}

func removeCategory(cs []models.Category, id string) []models.Category {
	out := cs[:0]
	for _, c := range cs {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// ApplyGoalOverlay returns goals with pending creates, moves and deletes
// applied, in order.
func ApplyGoalOverlay(goals []models.Goal, deltas []models.GoalDelta) []models.Goal {
	out := append([]models.Goal(nil), goals...)
	for _, d := range deltas {
		switch d.Op {
		case models.DeltaCreate:
			out = append(out, d.Goal)
		case models.DeltaUpdate:
			for i := range out {
				if out[i].ID == d.Goal.ID {
					out[i] = d.Goal
				}
			}
		case models.DeltaDelete:
			kept := out[:0]
			for _, g := range out {
				if g.ID != d.Goal.ID {
					kept = append(kept, g)
				}
			}
			out = kept
		}
	}
	return out
}

// DropCategoryGoals removes goals whose category is pending deletion, as the
// remote cascades category deletes to goals.
func DropCategoryGoals(goals []models.Goal, deltas []models.CategoryDelta) []models.Goal {
	deleted := make(map[string]bool)
	for _, d := range deltas {
		if d.Op == models.DeltaDelete {
			deleted[d.Category.ID] = true
		}
	}
	if len(deleted) == 0 {
		return goals
	}
	var out []models.Goal
	for _, g := range goals {
		if !deleted[g.CategoryID] {
			out = append(out, g)
		}
	}
	return out
}
