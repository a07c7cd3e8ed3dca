package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores resolutions per session. variant is the override value in
// effect ("" for none), so an override change never reads a stale entry.
type Cache interface {
	Get(ctx context.Context, session string, variant string) (Tenant, bool, error)
	Set(ctx context.Context, session string, variant string, t Tenant) error
	Clear(ctx context.Context, session string) error
}

type noCache struct{}

func (noCache) Get(context.Context, string, string) (Tenant, bool, error) {
	return Tenant{}, false, nil
}
func (noCache) Set(context.Context, string, string, Tenant) error { return nil }
func (noCache) Clear(context.Context, string) error               { return nil }

type memoryEntry struct {
	tenant    Tenant
	expiresAt time.Time
}

type MemoryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MemoryCache{ttl: ttl, now: time.Now, items: make(map[string]map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, session string, variant string) (Tenant, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[session][variant]
	if !ok {
		return Tenant{}, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.items[session], variant)
		return Tenant{}, false, nil
	}
	return e.tenant, true, nil
}

func (c *MemoryCache) Set(_ context.Context, session string, variant string, t Tenant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items[session] == nil {
		c.items[session] = make(map[string]memoryEntry)
	}
	c.items[session][variant] = memoryEntry{tenant: t, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Clear(_ context.Context, session string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, session)
	return nil
}

// RedisCache keeps one hash per session (field = override variant) so Clear
// is a single DEL.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, prefix: "aqlhr:tenant:", ttl: ttl}
}

func (c *RedisCache) key(session string) string { return c.prefix + session }

func (c *RedisCache) Get(ctx context.Context, session string, variant string) (Tenant, bool, error) {
	raw, err := c.client.HGet(ctx, c.key(session), variant).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Tenant{}, false, nil
		}
		return Tenant{}, false, err
	}
	var t Tenant
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Tenant{}, false, err
	}
	return t, true, nil
}

func (c *RedisCache) Set(ctx context.Context, session string, variant string, t Tenant) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	key := c.key(session)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, variant, string(b))
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Clear(ctx context.Context, session string) error {
	return c.client.Del(ctx, c.key(session)).Err()
}
