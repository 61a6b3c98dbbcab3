// Package notify pushes order status events to connected clients. Events
// are published to a per-user Redis channel; whatever serves the websocket
// edge subscribes to the same channel and forwards payloads as-is.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"

	"github.com/doughlab/pizzeria/internal/domain/order"
)

// channelPrefix namespaces the per-user order event channels.
const channelPrefix = "pizzeria:orders:"

var _ order.Publisher = (*RedisPublisher)(nil)

// RedisPublisher delivers order events over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to Redis at the given URL and verifies the
// connection with a short ping.
func NewRedisPublisher(ctx context.Context, redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "connect to redis")
	}

	return &RedisPublisher{client: client}, nil
}

// Publish sends the event to the owning user's channel. With no subscriber
// the message is simply dropped, which is the intended fire-and-forget
// behavior for disconnected clients.
func (p *RedisPublisher) Publish(ctx context.Context, userID string, ev order.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := p.client.Publish(ctx, Channel(userID), payload).Err(); err != nil {
		return errors.Wrap(err, "publish event")
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Channel returns the pub/sub channel name for a user.
func Channel(userID string) string {
	return channelPrefix + userID
}

// NopPublisher discards every event. Used when no Redis URL is configured
// and in tests.
type NopPublisher struct{}

// Publish implements order.Publisher.
func (NopPublisher) Publish(context.Context, string, order.Event) error { return nil }
