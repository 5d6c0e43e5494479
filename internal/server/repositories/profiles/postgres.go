package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/dbx"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, profile_created, is_verified, verified_at, full_name, date_of_birth,
			gender, address, about_me, travel_interests, profile_image_ref, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var (
		p          models.Profile
		verifiedAt sql.NullTime
		dob        sql.NullTime
		address    []byte
		interests  []byte
	)

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.ProfileCreated, &p.IsVerified, &verifiedAt, &p.FullName, &dob,
		&p.Gender, &address, &p.AboutMe, &interests, &p.ProfileImageRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if verifiedAt.Valid {
		t := verifiedAt.Time
		p.VerifiedAt = &t
	}
	if dob.Valid {
		p.DateOfBirth = dob.Time
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &p.Address); err != nil {
			return nil, fmt.Errorf("failed to decode address: %w", err)
		}
	}
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &p.TravelInterests); err != nil {
			return nil, fmt.Errorf("failed to decode travel interests: %w", err)
		}
	}

	return &p, nil
}

func (r *PostgresRepository) Save(ctx context.Context, userID string, form *models.ProfileForm) error {
	query := `
		INSERT INTO profiles (user_id, profile_created, full_name, date_of_birth, gender,
			address, about_me, travel_interests, profile_image_ref, updated_at)
		VALUES ($1, true, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			profile_created = true,
			full_name = EXCLUDED.full_name,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			address = EXCLUDED.address,
			about_me = EXCLUDED.about_me,
			travel_interests = EXCLUDED.travel_interests,
			profile_image_ref = EXCLUDED.profile_image_ref,
			updated_at = now()
	`

	address, err := json.Marshal(form.Address)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}

	interests := form.TravelInterests
	if interests == nil {
		interests = []string{}
	}
	interestsJSON, err := json.Marshal(interests)
	if err != nil {
		return fmt.Errorf("failed to encode travel interests: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		userID, form.FullName, form.DateOfBirth, form.Gender,
		string(address), form.AboutMe, string(interestsJSON), form.ProfileImageRef)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, userID string, at time.Time) error {
	query := `
		INSERT INTO profiles (user_id, is_verified, verified_at, updated_at)
		VALUES ($1, true, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			is_verified = true,
			verified_at = EXCLUDED.verified_at,
			updated_at = now()
	`
	res, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
