package cli

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/goaltrack/internal/derive"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/storage"
)

// Overview is the user's categories and goals fetched together.
type Overview struct {
	Categories []models.Category
	Goals      []models.Goal
}

// Groups returns the qualifying goals grouped by category.
func (o Overview) Groups() []derive.CategoryGoals {
	return derive.GroupGoalsByCategory(o.Goals, o.Categories)
}

// LoadOverview fetches categories and goals concurrently.
func (c *Context) LoadOverview(ctx context.Context) (Overview, error) {
	entities, err := c.Entities(ctx)
	if err != nil {
		return Overview{}, err
	}

	var ov Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ov.Categories, err = entities.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ov.Goals, err = entities.Goals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}

// FindCategory matches ref against category ids, then names ignoring case.
func FindCategory(categories []models.Category, ref string) (models.Category, error) {
	for _, cat := range categories {
		if cat.ID == ref {
			return cat, nil
		}
	}
	var matches []models.Category
	for _, cat := range categories {
		if strings.EqualFold(strings.TrimSpace(cat.Name), strings.TrimSpace(ref)) {
			matches = append(matches, cat)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Category{}, apperrors.Newf(apperrors.KindNotFound, "category", "no category matches %q", ref)
	default:
		return models.Category{}, apperrors.Newf(apperrors.KindValidation, "category", "%d categories are named %q, use the id", len(matches), ref)
	}
}

// FindGoal matches ref against goal ids, then descriptions ignoring case.
func FindGoal(goals []models.Goal, ref string) (models.Goal, error) {
	for _, g := range goals {
		if g.ID == ref {
			return g, nil
		}
	}
	var matches []models.Goal
	for _, g := range goals {
		if strings.EqualFold(strings.TrimSpace(g.Description), strings.TrimSpace(ref)) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Goal{}, apperrors.Newf(apperrors.KindNotFound, "goal", "no goal matches %q", ref)
	default:
		return models.Goal{}, apperrors.Newf(apperrors.KindValidation, "goal", "%d goals are described as %q, use the id", len(matches), ref)
	}
}

// HabitRef is a habit together with the goal that owns it.
type HabitRef struct {
	Goal  models.Goal
	Habit models.Habit
}

// FindHabit matches ref against the ids, then titles, of qualifying habits.
func FindHabit(goals []models.Goal, ref string) (HabitRef, error) {
	qualifying := derive.QualifyingGoals(goals)
	for _, g := range qualifying {
		for _, h := range g.Habits {
			if h.ID == ref {
				return HabitRef{Goal: g, Habit: h}, nil
			}
		}
	}
	var matches []HabitRef
	for _, g := range qualifying {
		for _, h := range g.Habits {
			if strings.EqualFold(strings.TrimSpace(h.Title), strings.TrimSpace(ref)) {
				matches = append(matches, HabitRef{Goal: g, Habit: h})
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return HabitRef{}, apperrors.Newf(apperrors.KindNotFound, "habit", "no habit matches %q", ref)
	default:
		return HabitRef{}, apperrors.Newf(apperrors.KindValidation, "habit", "%d habits are titled %q, use the id", len(matches), ref)
	}
}

// MonthCompletions fetches a month and refreshes the user's offline snapshot.
// goals supplies the habit titles stored alongside it.
func (c *Context) MonthCompletions(ctx context.Context, month models.Month, goals []models.Goal) ([]models.HabitCompletion, error) {
	entities, err := c.Entities(ctx)
	if err != nil {
		return nil, err
	}
	completions, err := entities.Completions(ctx, month)
	if err != nil {
		return nil, err
	}
	snap := storage.NewMonthSnapshot(month, derive.CompletionsByDate(completions), c.Now()).
		WithHabits(derive.HabitsInScope(goals))
	c.saveSnapshot(ctx, snap)
	return completions, nil
}

func (c *Context) saveSnapshot(ctx context.Context, snap storage.MonthSnapshot) {
	userID, err := c.UserID(ctx)
	if err != nil {
		logger.Debug("Skipping month snapshot", "error", err)
		return
	}
	state, err := c.State()
	if err != nil {
		logger.Warn("Local store unavailable, month snapshot not saved", "error", err)
		return
	}
	if err := state.SaveMonth(userID, snap); err != nil {
		logger.Warn("Failed to save month snapshot", "month", snap.Month, "error", err)
		return
	}
	if err := state.RememberUser(userID); err != nil {
		logger.Warn("Failed to remember user", "error", err)
	}
}

// OfflineMonth reads the snapshot saved by the last successful fetch of
// month. It never touches the network: the user is the one who was signed in
// when the snapshot was taken.
func (c *Context) OfflineMonth(month models.Month) (storage.MonthSnapshot, error) {
	state, err := c.State()
	if err != nil {
		return storage.MonthSnapshot{}, err
	}
	userID, ok, err := state.LastUser()
	if err != nil {
		return storage.MonthSnapshot{}, err
	}
	if !ok {
		return storage.MonthSnapshot{}, apperrors.New(apperrors.KindNotFound, "offline", "nothing saved yet, run without --offline first")
	}
	snap, ok, err := state.LoadMonth(userID, month)
	if err != nil {
		return storage.MonthSnapshot{}, err
	}
	if !ok {
		return storage.MonthSnapshot{}, apperrors.Newf(apperrors.KindNotFound, "offline", "no saved completions for %s, run without --offline first", month)
	}
	return snap, nil
}
