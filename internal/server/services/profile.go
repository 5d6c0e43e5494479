package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/events"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/repomanager"
)

// MinimumAge is the youngest age at which a traveller may create a profile.
const MinimumAge = 18

// ProfileService is the profile record store: it validates and persists
// the onboarding form, records verification results and pushes every
// change to subscribers.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	broker      events.Broker
	logger      logging.Logger
	now         func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, broker events.Broker, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		broker:      broker,
		logger:      logger.With("module", "profiles"),
		now:         time.Now,
	}
}

// Get returns the record of userID or common.ErrorNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return p, nil
}

// Save validates form and stores it, marking the profile as created. The
// verification fields are left as they are.
func (s *ProfileService) Save(ctx context.Context, userID string, form *models.ProfileForm) (*models.Profile, error) {
	clean, err := s.validate(ctx, userID, form)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Profiles(s.db).Save(ctx, userID, clean); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	s.publish(ctx, userID)
	s.logger.Info(ctx, "Profile saved", "user_id", userID)

	return s.Get(ctx, userID)
}

// MarkVerified records a successful identity verification at the given
// time. The record is created when it does not exist yet.
func (s *ProfileService) MarkVerified(ctx context.Context, userID string, at time.Time) error {
	if err := s.repomanager.Profiles(s.db).MarkVerified(ctx, userID, at); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	s.publish(ctx, userID)
	s.logger.Info(ctx, "Profile verified", "user_id", userID)
	return nil
}

// Subscribe delivers the current record (nil when there is none) and then
// a freshly read record after every change, until the returned function is
// called. Bursts of changes may be coalesced into one delivery. fn is
// called from a single goroutine.
func (s *ProfileService) Subscribe(ctx context.Context, userID string, fn func(*models.Profile)) (func(), error) {
	changed := make(chan struct{}, 1)
	unsub, err := s.broker.Subscribe(ctx, events.ProfileTopic(userID), func(events.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("error subscribing to profile: %w", err)
	}

	// initial snapshot
	select {
	case changed <- struct{}{}:
	default:
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-changed:
				p, err := s.Get(context.WithoutCancel(ctx), userID)
				if err != nil && !errors.Is(err, common.ErrorNotFound) {
					s.logger.Warn(ctx, "Failed to reload profile", "user_id", userID, "error", err)
					continue
				}
				fn(p)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			close(stop)
			<-done
		})
	}, nil
}

func (s *ProfileService) validate(ctx context.Context, userID string, form *models.ProfileForm) (*models.ProfileForm, error) {
	if form == nil {
		return nil, fmt.Errorf("%w: empty form", common.ErrValidation)
	}

	clean := *form
	clean.FullName = strings.TrimSpace(form.FullName)
	if clean.FullName == "" {
		return nil, fmt.Errorf("%w: full name is required", common.ErrValidation)
	}

	now := s.now()
	if clean.DateOfBirth.IsZero() {
		return nil, fmt.Errorf("%w: date of birth is required", common.ErrValidation)
	}
	if !clean.DateOfBirth.Before(now) {
		return nil, fmt.Errorf("%w: date of birth must be in the past", common.ErrValidation)
	}
	if clean.DateOfBirth.AddDate(MinimumAge, 0, 0).After(now) {
		return nil, fmt.Errorf("%w: you must be at least %d years old", common.ErrValidation, MinimumAge)
	}

	clean.TravelInterests = models.NormalizeInterests(form.TravelInterests)
	for _, v := range clean.TravelInterests {
		if !models.IsAllowedInterest(v) {
			return nil, fmt.Errorf("%w: unknown travel interest %q", common.ErrValidation, v)
		}
	}

	clean.Gender = strings.TrimSpace(form.Gender)
	clean.AboutMe = strings.TrimSpace(form.AboutMe)

	if clean.ProfileImageRef != "" {
		img, err := s.repomanager.Images(s.db).Get(ctx, clean.ProfileImageRef)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("%w: unknown profile image", common.ErrValidation)
			}
			return nil, fmt.Errorf("error loading profile image: %w", err)
		}
		if img.UserID != userID || img.Kind != models.ImageKindProfile || img.Status != models.UploadStatusUploaded {
			return nil, fmt.Errorf("%w: unknown profile image", common.ErrValidation)
		}
	}

	return &clean, nil
}

func (s *ProfileService) publish(ctx context.Context, userID string) {
	ev := events.Event{Kind: events.KindProfileChanged, UserID: userID, At: s.now()}
	if err := s.broker.Publish(ctx, events.ProfileTopic(userID), ev); err != nil {
		s.logger.Warn(ctx, "Failed to publish profile event", "user_id", userID, "error", err)
	}
}
