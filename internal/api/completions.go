package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

// RecordCompletion marks habitID done on date (YYYY-MM-DD).
func (c *Client) RecordCompletion(ctx context.Context, habitID, date string) (models.HabitCompletion, error) {
	var out models.HabitCompletion
	err := c.write(ctx, request{
		op:       "record completion",
		method:   http.MethodPost,
		path:     "/me/habits/" + url.PathEscape(habitID) + "/completions",
		body:     map[string]string{"completionDate": date},
		out:      &out,
		notFound: "habit not found",
	})
	if err == nil && out.HabitID == "" {
		out.HabitID = habitID
	}
	if err == nil && out.CompletionDate == "" {
		out.CompletionDate = date
	}
	return out, err
}

// DeleteCompletion removes one completion record.
func (c *Client) DeleteCompletion(ctx context.Context, id string) error {
	return c.write(ctx, request{
		op:       "delete completion",
		method:   http.MethodDelete,
		path:     "/me/completions/" + url.PathEscape(id),
		notFound: "completion not found",
	})
}

// ListCompletionsByDate returns every completion recorded on date.
func (c *Client) ListCompletionsByDate(ctx context.Context, date string) ([]models.HabitCompletion, error) {
	return c.listCompletions(ctx, "list completions by date", url.Values{"date": {date}})
}

// ListCompletionsRange returns completions between start and end inclusive.
// Only valid when the remote supports range queries.
func (c *Client) ListCompletionsRange(ctx context.Context, start, end string) ([]models.HabitCompletion, error) {
	const op = "list completions range"
	if !c.caps.RangeCompletions {
		return nil, apperrors.Validation(op, "completion range queries are not supported by this server")
	}
	return c.listCompletions(ctx, op, url.Values{"start": {start}, "end": {end}})
}

// SupportsCompletionRange reports whether ListCompletionsRange may be used.
func (c *Client) SupportsCompletionRange() bool {
	return c.caps.RangeCompletions
}

func (c *Client) listCompletions(ctx context.Context, op string, query url.Values) ([]models.HabitCompletion, error) {
	var raw json.RawMessage
	err := c.read(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/me/completions",
		query:  query,
		out:    &raw,
	})
	if apperrors.Is(err, apperrors.KindNotFound) {
		return []models.HabitCompletion{}, nil
	}
	if err != nil {
		return nil, err
	}
	completions, err := decodeCollection[models.HabitCompletion](raw, "completions")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConflictOrUnknown, op, err)
	}
	return completions, nil
}
