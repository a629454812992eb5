package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/utils"
)

// MaxNameLength bounds category names and habit titles.
const MaxNameLength = 120

// CategoryName trims and checks a category name.
func CategoryName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apperrors.Validation("category", "category name cannot be empty")
	}
	if len(trimmed) > MaxNameLength {
		return "", apperrors.Newf(apperrors.KindValidation, "category", "category name must be at most %d characters", MaxNameLength)
	}
	return trimmed, nil
}

// GoalDescription trims and checks a goal description.
func GoalDescription(desc string) (string, error) {
	trimmed := strings.TrimSpace(desc)
	if trimmed == "" {
		return "", apperrors.Validation("goal", "goal description cannot be empty")
	}
	return trimmed, nil
}

// HabitTitles drops blank titles and requires at least one remaining.
func HabitTitles(titles []string) ([]string, error) {
	var out []string
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > MaxNameLength {
			return nil, apperrors.Newf(apperrors.KindValidation, "goal", "habit %q is longer than %d characters", t, MaxNameLength)
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, apperrors.Validation("goal", "a goal needs at least one habit")
	}
	return out, nil
}

// ID rejects empty identifiers.
func ID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Newf(apperrors.KindValidation, kind, "%s id cannot be empty", kind)
	}
	return nil
}

// CompletionDate parses a YYYY-MM-DD date in today's location and rejects
// dates after today.
func CompletionDate(date string, today time.Time) (time.Time, error) {
	d, err := utils.ParseDateInLocation(date, today.Location())
	if err != nil {
		return time.Time{}, apperrors.Newf(apperrors.KindValidation, "completion", "invalid date %q (expected YYYY-MM-DD)", date)
	}
	if utils.IsAfterDay(d, today) {
		return time.Time{}, apperrors.Newf(apperrors.KindValidation, "completion", "%s is in the future", d.Format(constants.DateFormat))
	}
	return d, nil
}

// ConflictType represents the type of data consistency warning
type ConflictType string

const (
	ConflictGoalWithoutHabits     ConflictType = "goal_without_habits"
	ConflictUnknownCategory       ConflictType = "unknown_category"
	ConflictDuplicateCategoryName ConflictType = "duplicate_category_name"
	ConflictDuplicateCompletion   ConflictType = "duplicate_completion"
	ConflictOrphanCompletion      ConflictType = "orphan_completion"
)

// Conflict represents a detected inconsistency in fetched data
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD format (if applicable)
	Items       []string // ids involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks fetched collections for inconsistencies the remote allows.
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateGoals reports goals that cannot be tracked and goals pointing at
// categories that do not exist.
func (v *Validator) ValidateGoals(goals []models.Goal, categories []models.Category) ValidationResult {
	var result ValidationResult

	known := make(map[string]bool, len(categories))
	byName := make(map[string][]string)
	for _, c := range categories {
		known[c.ID] = true
		key := strings.ToLower(strings.TrimSpace(c.Name))
		byName[key] = append(byName[key], c.ID)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ids := byName[name]; len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateCategoryName,
				Description: fmt.Sprintf("%d categories are named %q", len(ids), name),
				Items:       ids,
			})
		}
	}

	for _, g := range goals {
		tracked := 0
		for _, h := range g.Habits {
			if !h.IsBlank() {
				tracked++
			}
		}
		if tracked == 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictGoalWithoutHabits,
				Description: fmt.Sprintf("goal %q has no trackable habits and is hidden", g.Description),
				Items:       []string{g.ID},
			})
		}
		if g.CategoryID != "" && !known[g.CategoryID] {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownCategory,
				Description: fmt.Sprintf("goal %q belongs to missing category %s", g.Description, g.CategoryID),
				Items:       []string{g.ID, g.CategoryID},
			})
		}
	}

	return result
}

// ValidateCompletions reports duplicate records for one habit on one day and
// records for habits no goal owns.
func (v *Validator) ValidateCompletions(completions []models.HabitCompletion, goals []models.Goal) ValidationResult {
	var result ValidationResult

	habits := make(map[string]bool)
	for _, g := range goals {
		for _, h := range g.Habits {
			habits[h.ID] = true
		}
	}

	type pair struct{ habitID, date string }
	seen := make(map[pair][]string)
	var order []pair
	for _, c := range completions {
		p := pair{c.HabitID, c.CompletionDate}
		if _, ok := seen[p]; !ok {
			order = append(order, p)
		}
		seen[p] = append(seen[p], c.ID)
	}

	for _, p := range order {
		ids := seen[p]
		if len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateCompletion,
				Description: fmt.Sprintf("habit %s has %d completions on %s", p.habitID, len(ids), p.date),
				Date:        p.date,
				Items:       ids,
			})
		}
		if !habits[p.habitID] {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictOrphanCompletion,
				Description: fmt.Sprintf("completion for unknown habit %s on %s", p.habitID, p.date),
				Date:        p.date,
				Items:       ids,
			})
		}
	}

	return result
}
