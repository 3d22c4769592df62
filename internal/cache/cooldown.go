package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown rate limits an action per key with a Redis SET NX marker.
type Cooldown struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCooldown(client *redis.Client, prefix string, ttl time.Duration) *Cooldown {
	return &Cooldown{client: client, prefix: prefix, ttl: ttl}
}

// Acquire reports whether key is outside its cooldown window and, if so,
// starts a new window.
func (c *Cooldown) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(key), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown acquire: %w", err)
	}
	return ok, nil
}

// Release ends the window for key early.
func (c *Cooldown) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("cooldown release: %w", err)
	}
	return nil
}

func (c *Cooldown) key(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}
