// Package broker provides the Redis wake-up channel between enqueuers
// and worker processes. The durable queue lives in PostgreSQL; Redis only
// shortens the latency between enqueue and pickup.
package broker

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes and subscribes to the job wake-up channel.
type Notifier struct {
	client  *redis.Client
	channel string
}

// NewNotifier connects to Redis and verifies the connection
func NewNotifier(ctx context.Context, addr, password string, db int, channel string) (*Notifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Notifier{client: client, channel: channel}, nil
}

// Notify signals that new work is available
func (n *Notifier) Notify(ctx context.Context) error {
	if err := n.client.Publish(ctx, n.channel, "wake").Err(); err != nil {
		return fmt.Errorf("failed to publish wake signal: %w", err)
	}
	return nil
}

// Listen subscribes to the wake-up channel and invokes wake for every
// message until ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context, wake func()) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	ch := sub.Channel()
	log.Printf("listening for wake signals on %s", n.channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			wake()
		}
	}
}

// Close closes the Redis connection
func (n *Notifier) Close() error {
	return n.client.Close()
}
