package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

const keyPrefix = "publication:"

// PublicationCache keeps publication reads in Redis with TTL. A nil cache is
// valid and behaves as a permanent miss, so the service works without Redis.
type PublicationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPublicationCache builds a Redis-backed publication cache.
func NewPublicationCache(client *redis.Client, ttl time.Duration) *PublicationCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PublicationCache{client: client, ttl: ttl}
}

// Get returns the cached publication, or false on a miss. Cache failures are
// treated as misses: the store stays the source of truth.
func (c *PublicationCache) Get(ctx context.Context, id int64) (*domain.Publication, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var publication domain.Publication
	if err := json.Unmarshal(raw, &publication); err != nil {
		return nil, false
	}
	return &publication, true
}

// Set stores the publication under its id with the configured TTL.
func (c *PublicationCache) Set(ctx context.Context, publication *domain.Publication) {
	if c == nil || publication == nil {
		return
	}
	raw, err := json.Marshal(publication)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(publication.ID), raw, c.ttl).Err()
}

// Invalidate drops the cached entry for id.
func (c *PublicationCache) Invalidate(ctx context.Context, id int64) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(id)).Err()
}

func cacheKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}
