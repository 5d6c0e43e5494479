// Package storage keeps image bytes in an S3-compatible object store
// (MinIO in development). Clients upload directly through presigned PUT
// URLs; the server only reads objects back for face matching and deletes
// them once a verification attempt is over.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PresignTTL is how long an upload URL stays valid.
const PresignTTL = 15 * time.Minute

// MaxObjectSize caps how many bytes Get will read. The Face API rejects
// images above 6 MB anyway.
const MaxObjectSize = 8 << 20

// ObjectStore is the object-storage surface used by the image service.
type ObjectStore interface {
	// PresignPut returns a URL the client can PUT the object to.
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Exists reports whether key has been uploaded.
	Exists(ctx context.Context, key string) (bool, error)

	// Get reads the whole object. A missing key yields common.ErrorNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a fresh, unguessable key for an image of the given
// kind owned by userID.
func NewStorageKey(userID, kind string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("users/%s/%s/%d/%02d/%02d/%v", userID, kind, d.Year(), d.Month(), d.Day(), uuid.New())
}
