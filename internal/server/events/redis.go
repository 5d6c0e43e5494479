package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	goredis "github.com/redis/go-redis/v9"
)

// RedisBroker fans events out through Redis pub/sub so that every server
// instance sees changes made by the others.
type RedisBroker struct {
	client    *goredis.Client
	namespace string
	logger    logging.Logger
}

func NewRedisBroker(client *goredis.Client, namespace string, logger logging.Logger) *RedisBroker {
	return &RedisBroker{
		client:    client,
		namespace: namespace,
		logger:    logger.With("module", "events"),
	}
}

func (b *RedisBroker) channel(topic string) string {
	return fmt.Sprintf("%s:events:%s", b.namespace, topic)
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: failed to marshal: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(topic), data).Err(); err != nil {
		return fmt.Errorf("events: publish failed: %w", err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning,
// so an event published right after Subscribe is not missed.
func (b *RedisBroker) Subscribe(ctx context.Context, topic string, fn Handler) (func(), error) {
	ps := b.client.Subscribe(ctx, b.channel(topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("events: subscribe failed: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn(context.Background(), "Dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			fn(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
			<-done
		})
	}, nil
}

// Close is a no-op: the Redis client is owned by the caller.
func (b *RedisBroker) Close() error { return nil }
