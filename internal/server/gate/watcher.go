package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/events"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/session"
)

// Sessions answers who is signed in and pushes session changes.
type Sessions interface {
	Current(ctx context.Context, sessionID string) (*session.Session, error)
	Subscribe(ctx context.Context, userID string, fn events.Handler) (func(), error)
}

// Profiles pushes the profile record of a user, starting with its current
// value.
type Profiles interface {
	Subscribe(ctx context.Context, userID string, fn func(*models.Profile)) (func(), error)
}

// Watcher re-evaluates Decide whenever the session or the profile behind it
// changes.
type Watcher struct {
	sessions Sessions
	profiles Profiles
	logger   logging.Logger
}

func NewWatcher(sessions Sessions, profiles Profiles, logger logging.Logger) *Watcher {
	return &Watcher{
		sessions: sessions,
		profiles: profiles,
		logger:   logger.With("module", "gate"),
	}
}

// Watch calls emit with the current flow of sessionID and again every time
// it changes, including when the session runs out. It returns nil after emitting FlowAuth once the session is
// gone, ctx.Err() when ctx is done, or the first error returned by emit.
// All subscriptions are released before Watch returns.
func (w *Watcher) Watch(ctx context.Context, sessionID string, emit func(Flow) error) error {
	s, err := w.sessions.Current(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session: %w", err)
	}
	if s == nil {
		return emit(FlowAuth)
	}

	sessionChanged := make(chan struct{}, 1)
	unsubSession, err := w.sessions.Subscribe(ctx, s.UserID, func(events.Event) {
		select {
		case sessionChanged <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("error subscribing to session: %w", err)
	}
	defer unsubSession()

	// latest profile only; older undelivered values are replaced
	profiles := make(chan *models.Profile, 1)
	var mailbox sync.Mutex
	unsubProfile, err := w.profiles.Subscribe(ctx, s.UserID, func(p *models.Profile) {
		mailbox.Lock()
		defer mailbox.Unlock()
		select {
		case <-profiles:
		default:
		}
		profiles <- p
	})
	if err != nil {
		return fmt.Errorf("error subscribing to profile: %w", err)
	}
	defer unsubProfile()

	log := w.logger.With("session_id", sessionID, "user_id", s.UserID)

	// expiry does not publish an event, so it is timed here
	expiresAt := s.ExpiresAt
	expiry := time.NewTimer(time.Until(expiresAt))
	defer expiry.Stop()

	var (
		profile *models.Profile
		last    Flow
		ready   bool
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-sessionChanged:
			cur, err := w.sessions.Current(ctx, sessionID)
			if err != nil {
				log.Warn(ctx, "Failed to reload session", "error", err)
				continue
			}
			s = cur
			if s != nil && !s.ExpiresAt.Equal(expiresAt) {
				expiresAt = s.ExpiresAt
				expiry.Reset(time.Until(expiresAt))
			}

		case <-expiry.C:
			cur, err := w.sessions.Current(ctx, sessionID)
			if err != nil {
				log.Warn(ctx, "Failed to reload expired session", "error", err)
			}
			if err != nil || cur == nil || !cur.ExpiresAt.After(expiresAt) {
				log.Debug(ctx, "Session expired")
				s = nil
				break
			}
			s = cur
			expiresAt = s.ExpiresAt
			expiry.Reset(time.Until(expiresAt))

		case profile = <-profiles:
			ready = true
		}

		// the first decision waits for the initial profile snapshot
		if !ready && s != nil {
			continue
		}

		flow := Decide(s, profile)
		if flow != last {
			log.Debug(ctx, "Flow changed", "from", last, "to", flow)
			if err := emit(flow); err != nil {
				return err
			}
			last = flow
		}
		if flow == FlowAuth {
			return nil
		}
	}
}
