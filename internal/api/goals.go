package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

// NewGoal is the payload for creating a goal.
type NewGoal struct {
	Description string   `json:"goal_description"`
	Habits      []string `json:"finalised_habits"`
	CategoryID  string   `json:"category_id,omitempty"`
	Timeframe   string   `json:"timeframe,omitempty"`
}

// ListGoals returns the signed-in customer's goals with their habits.
func (c *Client) ListGoals(ctx context.Context) ([]models.Goal, error) {
	const op = "list goals"
	var raw json.RawMessage
	if err := c.read(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     "/me/goals",
		out:      &raw,
		notFound: "customer not found",
	}); err != nil {
		// A customer the service has not seen yet has nothing stored.
		if apperrors.Is(err, apperrors.KindNotFound) {
			return []models.Goal{}, nil
		}
		return nil, err
	}
	goals, err := decodeCollection[models.Goal](raw, "goals")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConflictOrUnknown, op, err)
	}
	return goals, nil
}

// CreateGoal creates a goal for the signed-in customer.
func (c *Client) CreateGoal(ctx context.Context, goal NewGoal) (models.Goal, error) {
	const op = "create goal"
	customerID, err := c.session.UserID(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.KindAuth) {
			return models.Goal{}, err
		}
		return models.Goal{}, apperrors.Wrap(apperrors.KindAuth, op, err)
	}
	if goal.Habits == nil {
		goal.Habits = []string{}
	}

	var out models.Goal
	err = c.write(ctx, request{
		op:       op,
		method:   http.MethodPost,
		path:     "/customers/" + url.PathEscape(customerID) + "/goals",
		body:     goal,
		out:      &out,
		notFound: "customer not found",
	})
	return out, err
}

// MoveGoal assigns goal id to categoryID. An empty categoryID uncategorizes it.
func (c *Client) MoveGoal(ctx context.Context, id, categoryID string) (models.Goal, error) {
	body := struct {
		CategoryID *string `json:"category_id"`
	}{}
	if categoryID != "" {
		body.CategoryID = &categoryID
	}

	var out models.Goal
	err := c.write(ctx, request{
		op:       "move goal",
		method:   http.MethodPatch,
		path:     "/me/goals/" + url.PathEscape(id),
		body:     body,
		out:      &out,
		notFound: "goal not found",
	})
	return out, err
}

// DeleteGoal deletes goal id. The remote cascades to its habits and their
// completions.
func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.write(ctx, request{
		op:       "delete goal",
		method:   http.MethodDelete,
		path:     "/me/goals/" + url.PathEscape(id),
		notFound: "goal not found",
	})
}

// SuggestHabits asks the remote for habits supporting description.
func (c *Client) SuggestHabits(ctx context.Context, description string) ([]string, error) {
	const op = "suggest habits"
	if !c.caps.HabitSuggestions {
		return nil, apperrors.Validation(op, "habit suggestions are not enabled")
	}

	var out struct {
		Habits []string `json:"habits"`
	}
	if err := c.write(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/me/goals/suggestions",
		body:   map[string]string{"goal_description": description},
		out:    &out,
	}); err != nil {
		return nil, err
	}
	return out.Habits, nil
}
