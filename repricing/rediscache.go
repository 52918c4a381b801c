package repricing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRulesCache is a Redis-backed implementation of RulesCache, for
// deployments where several server replicas share one active-rules view.
// Errors talking to Redis are treated as cache misses; the store remains
// the source of truth.
type RedisRulesCache struct {
	client *redis.Client
	key    string
	config CacheConfig
}

// NewRedisRulesCache creates a Redis-backed rules cache. The key namespaces
// the cached list so multiple environments can share one Redis.
func NewRedisRulesCache(client *redis.Client, key string, config CacheConfig) *RedisRulesCache {
	if key == "" {
		key = "repricing:rules:active"
	}
	return &RedisRulesCache{
		client: client,
		key:    key,
		config: config,
	}
}

// Get retrieves cached rules. Returns nil on miss, expiry, or Redis error.
func (c *RedisRulesCache) Get() []*Rule {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		return nil
	}

	var rules []*Rule
	if err := json.Unmarshal(payload, &rules); err != nil {
		return nil
	}
	return rules
}

// Set stores rules in Redis. A zero TTL stores without expiration; the
// cache is then invalidated only on mutations.
func (c *RedisRulesCache) Set(rules []*Rule) {
	payload, err := json.Marshal(rules)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c.client.Set(ctx, c.key, payload, c.config.TTL)
}

// Invalidate deletes the cached list.
func (c *RedisRulesCache) Invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c.client.Del(ctx, c.key)
}

// IsValid reports whether the key currently exists.
func (c *RedisRulesCache) IsValid() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := c.client.Exists(ctx, c.key).Result()
	return err == nil && n > 0
}
