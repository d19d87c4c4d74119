// Package cache implements the match result cache on Redis.
//
// Entries map (user, CV identity) to a full computed ranking. There is no
// TTL: staleness depends on whether the posting pool changed, not on
// elapsed time, so entries live until a full invalidation triggered by the
// ingestion pipeline.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/match-service/internal/match"
)

// keyPrefix namespaces every cache entry so full invalidation can scan them.
const keyPrefix = "match:cache:"

// MatchCache is a Redis-backed match.ResultCache.
type MatchCache struct {
	rdb *redis.Client
}

// New returns a MatchCache using the given Redis client.
func New(rdb *redis.Client) *MatchCache {
	return &MatchCache{rdb: rdb}
}

// Key builds the cache key for a (user, CV identity) pair. The CV file URL
// is hashed: it is long, contains separator characters, and only equality
// matters.
func Key(userID, cvFileURL string) string {
	sum := sha256.Sum256([]byte(cvFileURL))
	return keyPrefix + userID + ":" + hex.EncodeToString(sum[:8])
}

// Get returns the cached ranking for the pair, or nil on miss. A missing CV
// identity has no stable cache key, so it is always a miss.
func (c *MatchCache) Get(ctx context.Context, userID, cvFileURL string) (*match.CachedMatches, error) {
	if cvFileURL == "" {
		return nil, nil
	}

	raw, err := c.rdb.Get(ctx, Key(userID, cvFileURL)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var entry match.CachedMatches
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("cache entry decode: %w", err)
	}
	return &entry, nil
}

// Put stores a computed ranking. Writing the same key again overwrites the
// previous entry (last write wins — concurrent puts for the same key are
// benign). A missing CV identity is not cached.
func (c *MatchCache) Put(ctx context.Context, userID, cvFileURL string, results []match.MatchResult) error {
	if cvFileURL == "" {
		return nil
	}

	entry := match.CachedMatches{
		UserID:    userID,
		CVFileURL: cvFileURL,
		Results:   results,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache entry encode: %w", err)
	}

	if err := c.rdb.Set(ctx, Key(userID, cvFileURL), raw, 0).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// InvalidateAll deletes every cached ranking and returns the count.
func (c *MatchCache) InvalidateAll(ctx context.Context) (int, error) {
	var deleted int
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("cache invalidate del: %w", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("cache invalidate scan: %w", err)
	}
	return deleted, nil
}
