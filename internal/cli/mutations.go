package cli

import (
	"context"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/forms"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/mutation"
)

// CategoryEditor returns an editor bound to this invocation's coordinator.
func (c *Context) CategoryEditor(ctx context.Context) (*mutation.CategoryEditor, error) {
	coord, err := c.Coordinator(ctx)
	if err != nil {
		return nil, err
	}
	client, err := c.Client(ctx)
	if err != nil {
		return nil, err
	}
	return mutation.NewCategoryEditor(coord, client), nil
}

// GoalEditor returns an editor bound to this invocation's coordinator.
func (c *Context) GoalEditor(ctx context.Context) (*mutation.GoalEditor, error) {
	coord, err := c.Coordinator(ctx)
	if err != nil {
		return nil, err
	}
	client, err := c.Client(ctx)
	if err != nil {
		return nil, err
	}
	return mutation.NewGoalEditor(coord, client), nil
}

// Toggler returns a completion toggler applying policy. After each toggle
// the affected month is reloaded so the offline snapshot stays current.
func (c *Context) Toggler(ctx context.Context, policy mutation.UnmarkPolicy, goals []models.Goal) (*mutation.CompletionToggler, error) {
	coord, err := c.Coordinator(ctx)
	if err != nil {
		return nil, err
	}
	client, err := c.Client(ctx)
	if err != nil {
		return nil, err
	}
	return mutation.NewCompletionToggler(coord, client, policy,
		mutation.WithClock(c.Clock, c.Config.Location()),
		mutation.WithMonthRefetch(func(ctx context.Context, month models.Month) error {
			_, err := c.MonthCompletions(ctx, month, goals)
			return err
		}),
	), nil
}

// Confirm asks a yes/no question unless yes is already set.
func (c *Context) Confirm(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	fm := &forms.ConfirmationFormModel{}
	if err := forms.NewConfirmationForm(fm, title, description).Run(); err != nil {
		return false, apperrors.Wrap(apperrors.KindValidation, "confirm", err)
	}
	return fm.Confirmed, nil
}
