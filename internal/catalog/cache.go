package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized catalog responses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ── Null cache ─────────────────────────────────────────────

// NullCache never stores anything.
type NullCache struct{}

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

// ── Redis cache ────────────────────────────────────────────

// RedisCache keeps responses in Redis under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisCache{client: client, prefix: "pagebuilder:catalog:"}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ── Caching source ─────────────────────────────────────────

// cached wraps a Source with a read-through response cache. Cache failures
// fall back to the underlying source.
type cached struct {
	src   Source
	cache Cache
	ttl   time.Duration
}

// Cached returns a Source that answers repeated reads from c.
func Cached(src Source, c Cache, ttl time.Duration) Source {
	if c == nil {
		c = NullCache{}
	}
	return &cached{src: src, cache: c, ttl: ttl}
}

func cacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return parts[0] + ":" + hex.EncodeToString(sum[:8])
}

func sortedIDs(ids []string) string {
	s := append([]string(nil), ids...)
	sort.Strings(s)
	return strings.Join(s, ",")
}

func through[T any](ctx context.Context, c *cached, key string, load func() (T, error)) (T, error) {
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var v T
		if json.Unmarshal(data, &v) == nil {
			return v, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return v, nil
}

func (c *cached) Categories(ctx context.Context) ([]Category, error) {
	return through(ctx, c, cacheKey("categories"), func() ([]Category, error) {
		return c.src.Categories(ctx)
	})
}

func (c *cached) Properties(ctx context.Context) ([]Property, error) {
	return through(ctx, c, cacheKey("properties"), func() ([]Property, error) {
		return c.src.Properties(ctx)
	})
}

func (c *cached) PropertyValues(ctx context.Context, categoryIDs []string, propertyName string) ([]string, error) {
	key := cacheKey("values", sortedIDs(categoryIDs), propertyName)
	return through(ctx, c, key, func() ([]string, error) {
		return c.src.PropertyValues(ctx, categoryIDs, propertyName)
	})
}

func (c *cached) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	filters, _ := json.Marshal(q.Filters)
	key := cacheKey("products", sortedIDs(q.CategoryIDs), string(filters),
		fmt.Sprintf("%d/%d", q.Limit, q.Offset))
	return through(ctx, c, key, func() ([]Product, error) {
		return c.src.Products(ctx, q)
	})
}

func (c *cached) Close() error {
	return errors.Join(c.src.Close(), c.cache.Close())
}
