// Package cache fronts slow lookups with redis.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	categoryKeyPrefix = "category:slug:"
	// missingMarker caches a slug that resolved to no category.
	missingMarker = "-"
)

// CategorySource is the authoritative slug lookup, normally the categories table.
type CategorySource interface {
	ResolveSlug(ctx context.Context, slug string) (*uuid.UUID, error)
}

// CategoryResolver caches slug → id lookups, including misses. With a nil
// redis client every call goes straight to the source. Redis errors are
// logged and fall through to the source.
type CategoryResolver struct {
	rdb    *redis.Client
	source CategorySource
	ttl    time.Duration
}

func NewCategoryResolver(rdb *redis.Client, source CategorySource, ttl time.Duration) *CategoryResolver {
	return &CategoryResolver{rdb: rdb, source: source, ttl: ttl}
}

func (c *CategoryResolver) ResolveSlug(ctx context.Context, slug string) (*uuid.UUID, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, nil
	}
	if c.rdb == nil {
		return c.source.ResolveSlug(ctx, slug)
	}

	key := categoryKeyPrefix + slug
	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if cached == missingMarker {
			return nil, nil
		}
		if id, perr := uuid.Parse(cached); perr == nil {
			return &id, nil
		}
		slog.Warn("discarding malformed category cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("category cache read failed", "key", key, "error", err)
	}

	id, err := c.source.ResolveSlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	val := missingMarker
	if id != nil {
		val = id.String()
	}
	if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		slog.Warn("category cache write failed", "key", key, "error", err)
	}
	return id, nil
}

// Ping reports whether redis is reachable; a nil client is always healthy.
func (c *CategoryResolver) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
