package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/travelbuddy/internal/server/storage"
)

// ImageService is the server side of image acquisition: it hands out
// presigned upload URLs, confirms uploads and serves the bytes to the face
// matcher. Handles are storage keys.
type ImageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	logger      logging.Logger
}

func NewImageService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, logger logging.Logger) *ImageService {
	return &ImageService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "images"),
	}
}

// RequestUpload registers a pending image and returns where to PUT it.
func (s *ImageService) RequestUpload(ctx context.Context, userID string, kind models.ImageKind) (*models.ImageUploadTask, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown image kind %q", common.ErrValidation, kind)
	}

	key := storage.NewStorageKey(userID, string(kind))

	url, err := s.store.PresignPut(ctx, key, storage.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	img := &models.Image{Handle: key, UserID: userID, Kind: kind, Status: models.UploadStatusPending}
	if err := s.repomanager.Images(s.db).Create(ctx, img); err != nil {
		return nil, fmt.Errorf("error registering image: %w", err)
	}

	return &models.ImageUploadTask{Handle: key, URL: url}, nil
}

// ConfirmUpload checks that the object behind handle exists and marks it
// uploaded. Handles of other users are reported as not found.
func (s *ImageService) ConfirmUpload(ctx context.Context, userID, handle string) (*models.Image, error) {
	repo := s.repomanager.Images(s.db)

	img, err := s.owned(ctx, userID, handle)
	if err != nil {
		return nil, err
	}
	if img.Status == models.UploadStatusUploaded {
		return img, nil
	}

	ok, err := s.store.Exists(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("error checking upload: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: image has not been uploaded", common.ErrValidation)
	}

	if err := repo.MarkUploaded(ctx, handle); err != nil {
		return nil, fmt.Errorf("error updating image: %w", err)
	}
	img.Status = models.UploadStatusUploaded
	return img, nil
}

// Uploaded returns the image behind handle if it belongs to userID, has
// the expected kind and has been uploaded.
func (s *ImageService) Uploaded(ctx context.Context, userID, handle string, kind models.ImageKind) (*models.Image, error) {
	img, err := s.owned(ctx, userID, handle)
	if err != nil {
		return nil, err
	}
	if img.Kind != kind {
		return nil, fmt.Errorf("%w: image is a %s image, not %s", common.ErrValidation, img.Kind, kind)
	}
	if img.Status != models.UploadStatusUploaded {
		return nil, fmt.Errorf("%w: image has not been uploaded", common.ErrValidation)
	}
	return img, nil
}

// Open reads the image bytes.
func (s *ImageService) Open(ctx context.Context, handle string) ([]byte, error) {
	return s.store.Get(ctx, handle)
}

// Discard deletes the object and its metadata. Discarding an unknown
// handle is not an error.
func (s *ImageService) Discard(ctx context.Context, handle string) error {
	if err := s.store.Delete(ctx, handle); err != nil {
		return fmt.Errorf("error deleting object: %w", err)
	}
	if err := s.repomanager.Images(s.db).Delete(ctx, handle); err != nil {
		return fmt.Errorf("error deleting image: %w", err)
	}
	s.logger.Debug(ctx, "Image discarded", "handle", handle)
	return nil
}

func (s *ImageService) owned(ctx context.Context, userID, handle string) (*models.Image, error) {
	img, err := s.repomanager.Images(s.db).Get(ctx, handle)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading image: %w", err)
	}
	if img.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return img, nil
}
