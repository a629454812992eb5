package mutation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/goaltrack/internal/api"
	"github.com/julianstephens/goaltrack/internal/cache"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/validation"
)

// TempIDPrefix marks ids of optimistically created entities.
const TempIDPrefix = "tmp-"

// CategoryRemote is the subset of the goals API used for categories.
type CategoryRemote interface {
	CreateCategory(ctx context.Context, name string) (models.Category, error)
	RenameCategory(ctx context.Context, id, name string) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CategoryKey is the mutation key for an existing category.
func CategoryKey(id string) string { return "category:" + id }

// CategoryEditor creates, renames and deletes categories.
type CategoryEditor struct {
	coord   *Coordinator
	remote  CategoryRemote
	overlay *Overlay[models.CategoryDelta]
}

// NewCategoryEditor creates an editor.
func NewCategoryEditor(coord *Coordinator, remote CategoryRemote) *CategoryEditor {
	return &CategoryEditor{coord: coord, remote: remote, overlay: NewOverlay[models.CategoryDelta]()}
}

// Overlay returns the pending category deltas.
func (e *CategoryEditor) Overlay() *Overlay[models.CategoryDelta] {
	return e.overlay
}

// IsPending reports whether category id has a change in flight.
func (e *CategoryEditor) IsPending(id string) bool {
	return e.coord.IsPending(CategoryKey(id))
}

// BeginCreate adds a category under a temporary id until the remote answers.
func (e *CategoryEditor) BeginCreate(name string) (*Pending, error) {
	tempID := TempIDPrefix + uuid.NewString()
	key := CategoryKey(tempID)
	var trimmed string

	return e.coord.Begin(Mutation{
		Key:  key,
		Name: "create category",
		Validate: func() error {
			var err error
			trimmed, err = validation.CategoryName(name)
			return err
		},
		Apply: func() {
			e.overlay.Set(key, models.CategoryDelta{Op: models.DeltaCreate, Category: models.Category{ID: tempID, Name: trimmed}})
		},
		Revert: func() { e.overlay.Delete(key) },
		Settle: func() { e.overlay.Delete(key) },
		Remote: func(ctx context.Context) error {
			_, err := e.remote.CreateCategory(ctx, trimmed)
			return err
		},
		Invalidates: []cache.Pattern{cache.AllOf(cache.KindCategories)},
	})
}

// BeginRename renames cat.
func (e *CategoryEditor) BeginRename(cat models.Category, name string) (*Pending, error) {
	key := CategoryKey(cat.ID)
	var trimmed string

	return e.coord.Begin(Mutation{
		Key:  key,
		Name: "rename category",
		Validate: func() error {
			if err := validation.ID("category", cat.ID); err != nil {
				return err
			}
			var err error
			trimmed, err = validation.CategoryName(name)
			if err != nil {
				return err
			}
			if trimmed == cat.Name {
				return apperrors.Validation("rename category", "the name is unchanged")
			}
			return nil
		},
		Apply: func() {
			renamed := cat
			renamed.Name = trimmed
			e.overlay.Set(key, models.CategoryDelta{Op: models.DeltaUpdate, Category: renamed})
		},
		Revert: func() { e.overlay.Delete(key) },
		Settle: func() { e.overlay.Delete(key) },
		Remote: func(ctx context.Context) error {
			_, err := e.remote.RenameCategory(ctx, cat.ID, trimmed)
			return err
		},
		Invalidates: []cache.Pattern{cache.AllOf(cache.KindCategories)},
	})
}

// BeginDelete deletes cat. The remote cascades to the category's goals and
// their completions, so all three collections are invalidated.
func (e *CategoryEditor) BeginDelete(cat models.Category) (*Pending, error) {
	key := CategoryKey(cat.ID)

	return e.coord.Begin(Mutation{
		Key:      key,
		Name:     "delete category",
		Validate: func() error { return validation.ID("category", cat.ID) },
		Apply: func() {
			e.overlay.Set(key, models.CategoryDelta{Op: models.DeltaDelete, Category: cat})
		},
		Revert: func() { e.overlay.Delete(key) },
		Settle: func() { e.overlay.Delete(key) },
		Remote: func(ctx context.Context) error {
			return e.remote.DeleteCategory(ctx, cat.ID)
		},
		Invalidates: []cache.Pattern{
			cache.AllOf(cache.KindCategories),
			cache.AllOf(cache.KindGoals),
			cache.AllOf(cache.KindCompletions),
		},
	})
}

// GoalRemote is the subset of the goals API used for goals.
type GoalRemote interface {
	CreateGoal(ctx context.Context, goal api.NewGoal) (models.Goal, error)
	MoveGoal(ctx context.Context, id, categoryID string) (models.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
}

// GoalKey is the mutation key for an existing goal.
func GoalKey(id string) string { return "goal:" + id }

// GoalEditor creates, moves and deletes goals.
type GoalEditor struct {
	coord   *Coordinator
	remote  GoalRemote
	overlay *Overlay[models.GoalDelta]
}

// NewGoalEditor creates an editor.
func NewGoalEditor(coord *Coordinator, remote GoalRemote) *GoalEditor {
	return &GoalEditor{coord: coord, remote: remote, overlay: NewOverlay[models.GoalDelta]()}
}

// Overlay returns the pending goal deltas.
func (e *GoalEditor) Overlay() *Overlay[models.GoalDelta] {
	return e.overlay
}

// IsPending reports whether goal id has a change in flight.
func (e *GoalEditor) IsPending(id string) bool {
	return e.coord.IsPending(GoalKey(id))
}

// BeginCreate adds a goal under a temporary id until the remote answers.
func (e *GoalEditor) BeginCreate(description, categoryID string, habits []string) (*Pending, error) {
	tempID := TempIDPrefix + uuid.NewString()
	key := GoalKey(tempID)
	var (
		desc   string
		titles []string
	)

	return e.coord.Begin(Mutation{
		Key:  key,
		Name: "create goal",
		Validate: func() error {
			var err error
			if desc, err = validation.GoalDescription(description); err != nil {
				return err
			}
			titles, err = validation.HabitTitles(habits)
			return err
		},
		Apply: func() {
			goal := models.Goal{ID: tempID, Description: desc, CategoryID: categoryID}
			for i, title := range titles {
				goal.Habits = append(goal.Habits, models.Habit{ID: fmt.Sprintf("%s-h%d", tempID, i), Title: title})
			}
			e.overlay.Set(key, models.GoalDelta{Op: models.DeltaCreate, Goal: goal})
		},
		Revert: func() { e.overlay.Delete(key) },
		Settle: func() { e.overlay.Delete(key) },
		Remote: func(ctx context.Context) error {
			_, err := e.remote.CreateGoal(ctx, api.NewGoal{Description: desc, Habits: titles, CategoryID: categoryID})
			return err
		},
		Invalidates: []cache.Pattern{cache.AllOf(cache.KindGoals)},
	})
}

// BeginMove moves goal to categoryID.
func (e *GoalEditor) BeginMove(goal models.Goal, categoryID string) (*Pending, error) {
	key := GoalKey(goal.ID)

	return e.coord.Begin(Mutation{
		Key:  key,
		Name: "move goal",
		Validate: func() error {
			if err := validation.ID("goal", goal.ID); err != nil {
				return err
			}
			if goal.CategoryID == categoryID {
				return apperrors.Validation("move goal", "the goal is already in that category")
			}
			return nil
		},
		Apply: func() {
			moved := goal
			moved.CategoryID = categoryID
			e.overlay.Set(key, models.GoalDelta{Op: models.DeltaUpdate, Goal: moved})
		},
		Revert: func() { e.overlay.Delete(key) },
		Settle: func() { e.overlay.Delete(key) },
		Remote: func(ctx context.Context) error {
			_, err := e.remote.MoveGoal(ctx, goal.ID, categoryID)
			return err
		},
		Invalidates: []cache.Pattern{cache.AllOf(cache.KindGoals)},
	})
}

// BeginDelete deletes goal. The remote cascades to its habits and their
// completions, so goals and every completion month are invalidated.
func (e *GoalEditor) BeginDelete(goal models.Goal) (*Pending, error) {
	key := GoalKey(goal.ID)

	return e.coord.Begin(Mutation{
		Key:      key,
		Name:     "delete goal",
		Validate: func() error { return validation.ID("goal", goal.ID) },
		Apply: func() {
			e.overlay.Set(key, models.GoalDelta{Op: models.DeltaDelete, Goal: goal})
		},
		Revert: func() { e.overlay.Delete(key) },
		Settle: func() { e.overlay.Delete(key) },
		Remote: func(ctx context.Context) error {
			return e.remote.DeleteGoal(ctx, goal.ID)
		},
		Invalidates: []cache.Pattern{
			cache.AllOf(cache.KindGoals),
			cache.AllOf(cache.KindCompletions),
		},
	})
}
