// Package profiles stores the per-user profile record that gates the
// onboarding flow.
package profiles

import (
	"context"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
)

// Repository persists profile records keyed by user id. Both writers are
// merge-upserts that touch disjoint columns, so a profile save and a
// verification write never overwrite each other.
type Repository interface {
	// Get returns the record for userID or common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.Profile, error)

	// Save writes the form fields and sets profile_created. It never
	// touches the verification columns.
	Save(ctx context.Context, userID string, form *models.ProfileForm) error

	// MarkVerified sets is_verified and verified_at, creating the record
	// when it does not exist yet.
	MarkVerified(ctx context.Context, userID string, at time.Time) error
}
