package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/dbx"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
)

// PostgresRepository implements image metadata storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a pending image row and fills in CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, image *models.Image) error {
	query := `
		INSERT INTO verification_images (handle, user_id, kind, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, image.Handle, image.UserID, string(image.Kind), image.Status).Scan(&image.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the image row for handle or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, handle string) (*models.Image, error) {
	query := `
		SELECT handle, user_id, kind, status, created_at
		FROM verification_images
		WHERE handle = $1
	`
	var (
		img  models.Image
		kind string
	)
	err := r.db.QueryRowContext(ctx, query, handle).Scan(&img.Handle, &img.UserID, &kind, &img.Status, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	img.Kind = models.ImageKind(kind)
	return &img, nil
}

// MarkUploaded flags the image as uploaded. Exactly one row must be affected.
func (r *PostgresRepository) MarkUploaded(ctx context.Context, handle string) error {
	query := `UPDATE verification_images SET status = $2 WHERE handle = $1`
	result, err := r.db.ExecContext(ctx, query, handle, models.UploadStatusUploaded)
	if err != nil {
		return fmt.Errorf("failed to mark uploaded: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch ra {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
}

// Delete removes the image row. A missing row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, handle string) error {
	query := `DELETE FROM verification_images WHERE handle = $1`
	if _, err := r.db.ExecContext(ctx, query, handle); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
