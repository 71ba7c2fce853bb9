package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on top of a Redis client. Tag groups are kept
// as Redis sets of member keys under "tag:<group>"; flushing a group deletes
// the members listed in the set plus the set itself.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache. All keys are namespaced with
// the given prefix (e.g. "catalog:").
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) tagKey(group string) string {
	return c.prefix + "tag:" + group
}

// Get returns the value for key, or ErrMiss when absent.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores value under key with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// SetTagged stores value under key and records the key in the group's tag
// set. The tag set carries a TTL slightly longer than the entry TTL so it
// does not leak when no mutation ever flushes the group.
func (c *RedisCache) SetTagged(ctx context.Context, group, key string, value []byte, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(key), value, ttl)
	pipe.SAdd(ctx, c.tagKey(group), c.key(key))
	pipe.Expire(ctx, c.tagKey(group), ttl+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set tagged: %w", err)
	}
	return nil
}

// Delete removes a single key. Missing keys are not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// FlushGroup deletes every key recorded in the group's tag set, then the
// set itself.
func (c *RedisCache) FlushGroup(ctx context.Context, group string) error {
	tagKey := c.tagKey(group)

	members, err := c.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis flush group: read members: %w", err)
	}

	keys := append(members, tagKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis flush group: delete: %w", err)
	}
	return nil
}

// Ping checks Redis reachability, for health checks.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
