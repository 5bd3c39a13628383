package posts

import (
	"context"

	"github.com/dmitrijs2005/modus/internal/server/models"
)

type Repository interface {
	// CreateIfAbsent inserts a content-addressed post. Inserting the
	// same id again is a no-op, never an error.
	CreateIfAbsent(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
}
