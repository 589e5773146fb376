package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a best-effort id-list cache in front of the follow graph list
// queries. Misses and errors both read as "not cached"; writes never fail
// the caller.
type Cache interface {
	GetIDs(ctx context.Context, key string) ([]string, bool)
	SetIDs(ctx context.Context, key string, ids []string, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
	Close() error
}

// New connects to redis, falling back to a noop cache when the address is
// empty or redis is unreachable.
func New(addr string) Cache {
	if addr == "" {
		log.Printf("redis disabled, using noop cache: empty address")
		return noopCache{}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis disabled, using noop cache: %v", err)
		_ = client.Close()
		return noopCache{}
	}

	log.Printf("redis connected addr=%s", addr)
	return &redisCache{client: client}
}

// NewNoop returns a cache that never hits, for tests and disabled setups.
func NewNoop() Cache {
	return noopCache{}
}

type redisCache struct {
	client *redis.Client
}

func (c *redisCache) GetIDs(ctx context.Context, key string) ([]string, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *redisCache) SetIDs(ctx context.Context, key string, ids []string, ttl time.Duration) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("redis set failed key=%s: %v", key, err)
	}
}

func (c *redisCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("redis del failed: %v", err)
	}
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

type noopCache struct{}

func (noopCache) GetIDs(ctx context.Context, key string) ([]string, bool) { return nil, false }

func (noopCache) SetIDs(ctx context.Context, key string, ids []string, ttl time.Duration) {}

func (noopCache) Invalidate(ctx context.Context, keys ...string) {}

func (noopCache) Close() error { return nil }

// FollowersKey and FollowingKey name the cached id lists per user.
func FollowersKey(userID string) string { return "followers:" + userID }

func FollowingKey(userID string) string { return "following:" + userID }
