package onboarding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache is the Redis-backed read-through cache for the tour flag, so flag
// lookups on every connect do not hit Postgres.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ FlagCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(playerID uuid.UUID) string {
	return "tour_seen:" + playerID.String()
}

// Get returns the cached flag; ok is false on a miss.
func (c *Cache) Get(ctx context.Context, playerID uuid.UUID) (seen bool, ok bool, err error) {
	val, err := c.client.Get(ctx, c.key(playerID)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, false, nil
		}
		return false, false, err
	}
	return val == "1", true, nil
}

// Set writes the flag with the configured TTL.
func (c *Cache) Set(ctx context.Context, playerID uuid.UUID, seen bool) error {
	val := "0"
	if seen {
		val = "1"
	}
	return c.client.Set(ctx, c.key(playerID), val, c.ttl).Err()
}
