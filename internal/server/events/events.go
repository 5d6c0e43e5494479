// Package events carries change notifications between the session
// provider, the profile service and the flow watchers. Payloads are tiny:
// subscribers re-read the state they care about instead of trusting the
// message.
package events

import (
	"context"
	"time"
)

// Kinds of events.
const (
	KindSessionStarted = "session_started"
	KindSessionEnded   = "session_ended"
	KindProfileChanged = "profile_changed"
)

// Event is a single change notification.
type Event struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// Handler receives events. It runs on the broker's delivery goroutine and
// must not block.
type Handler func(Event)

// Broker publishes events to topics and fans them out to subscribers.
type Broker interface {
	Publish(ctx context.Context, topic string, ev Event) error

	// Subscribe registers fn for topic. The returned function removes the
	// subscription and is safe to call more than once.
	Subscribe(ctx context.Context, topic string, fn Handler) (func(), error)

	Close() error
}

// SessionTopic is the topic for session changes of userID.
func SessionTopic(userID string) string { return "session:" + userID }

// ProfileTopic is the topic for profile changes of userID.
func ProfileTopic(userID string) string { return "profile:" + userID }
