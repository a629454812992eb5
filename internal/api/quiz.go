package api

import (
	"context"
	"net/http"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

// GetQuiz returns the saved questionnaire. found is false when the user has
// not completed it yet.
func (c *Client) GetQuiz(ctx context.Context) (resp models.QuizResponse, found bool, err error) {
	err = c.read(ctx, request{
		op:     "get quiz",
		method: http.MethodGet,
		path:   "/me/quiz",
		out:    &resp,
	})
	if apperrors.Is(err, apperrors.KindNotFound) {
		return models.QuizResponse{}, false, nil
	}
	if err != nil {
		return models.QuizResponse{}, false, err
	}
	return resp, true, nil
}

// SaveQuiz stores a completed questionnaire.
func (c *Client) SaveQuiz(ctx context.Context, q models.QuizResponse) error {
	return c.write(ctx, request{
		op:     "save quiz",
		method: http.MethodPost,
		path:   "/me/quiz",
		body:   q,
	})
}
