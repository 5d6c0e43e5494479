package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/events"
	"github.com/google/uuid"
)

// Provider is the credential/session provider. It is the only component
// that creates or destroys sessions.
type Provider struct {
	store  Store
	broker events.Broker
	ttl    time.Duration
	logger logging.Logger
	now    func() time.Time
}

func NewProvider(store Store, broker events.Broker, ttl time.Duration, logger logging.Logger) *Provider {
	return &Provider{
		store:  store,
		broker: broker,
		ttl:    ttl,
		logger: logger.With("module", "session"),
		now:    time.Now,
	}
}

// SignIn opens a new session for userID.
func (p *Provider) SignIn(ctx context.Context, userID string) (*Session, error) {
	now := p.now()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}

	if err := p.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	p.publish(ctx, events.Event{Kind: events.KindSessionStarted, UserID: userID, SessionID: s.ID, At: now})
	p.logger.Info(ctx, "Session started", "user_id", userID, "session_id", s.ID)
	return &s, nil
}

// SignOut ends the session. Signing out of an unknown session is a no-op.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	s, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil
	}

	if err := p.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	p.publish(ctx, events.Event{Kind: events.KindSessionEnded, UserID: s.UserID, SessionID: s.ID, At: p.now()})
	p.logger.Info(ctx, "Session ended", "user_id", s.UserID, "session_id", s.ID)
	return nil
}

// Current returns the signed-in session, or nil when it is absent or
// expired.
func (p *Provider) Current(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	s, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.Expired(p.now()) {
		return nil, nil
	}
	return s, nil
}

// Subscribe calls fn for every session change of userID until the
// returned function is called.
func (p *Provider) Subscribe(ctx context.Context, userID string, fn events.Handler) (func(), error) {
	return p.broker.Subscribe(ctx, events.SessionTopic(userID), fn)
}

// A lost notification only delays a watcher until the next change, so
// publish failures are logged and swallowed.
func (p *Provider) publish(ctx context.Context, ev events.Event) {
	if err := p.broker.Publish(ctx, events.SessionTopic(ev.UserID), ev); err != nil {
		p.logger.Warn(ctx, "Failed to publish session event", "kind", ev.Kind, "error", err)
	}
}
