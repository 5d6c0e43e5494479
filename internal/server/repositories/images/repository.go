// Package images stores metadata of the pictures uploaded for identity
// verification and profile photos. The bytes live in object storage.
package images

import (
	"context"

	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, image *models.Image) error
	Get(ctx context.Context, handle string) (*models.Image, error)
	MarkUploaded(ctx context.Context, handle string) error
	Delete(ctx context.Context, handle string) error
}
