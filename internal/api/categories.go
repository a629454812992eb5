package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// ListCategories returns the signed-in customer's categories.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "list categories"
	var raw json.RawMessage
	if err := c.read(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     "/me/categories",
		out:      &raw,
		notFound: "customer not found",
	}); err != nil {
		// A customer the service has not seen yet has nothing stored.
		if apperrors.Is(err, apperrors.KindNotFound) {
			return []models.Category{}, nil
		}
		return nil, err
	}
	categories, err := decodeCollection[models.Category](raw, "categories")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConflictOrUnknown, op, err)
	}
	return categories, nil
}

// CreateCategory creates a category named name.
func (c *Client) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	var out models.Category
	err := c.write(ctx, request{
		op:     "create category",
		method: http.MethodPost,
		path:   "/me/categories",
		body:   categoryRequest{Name: name},
		out:    &out,
	})
	return out, err
}

// RenameCategory renames category id.
func (c *Client) RenameCategory(ctx context.Context, id, name string) (models.Category, error) {
	var out models.Category
	err := c.write(ctx, request{
		op:       "rename category",
		method:   http.MethodPut,
		path:     "/me/categories/" + url.PathEscape(id),
		body:     categoryRequest{Name: name},
		out:      &out,
		notFound: "category not found",
	})
	return out, err
}

// DeleteCategory deletes category id. The remote cascades to its goals.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.write(ctx, request{
		op:       "delete category",
		method:   http.MethodDelete,
		path:     "/me/categories/" + url.PathEscape(id),
		notFound: "category not found",
	})
}
