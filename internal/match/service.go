package match

import (
	"context"
	"fmt"
	"log/slog"
)

// ─── Cache dependency ────────────────────────────────────────────────────────

// ResultCache stores computed rankings keyed by (user, CV identity).
// Implemented by cache.MatchCache. A nil entry on Get means cache miss.
type ResultCache interface {
	Get(ctx context.Context, userID, cvFileURL string) (*CachedMatches, error)
	Put(ctx context.Context, userID, cvFileURL string, results []MatchResult) error
	InvalidateAll(ctx context.Context) (int, error)
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the match business logic: cache consultation, the
// multi-aspect matcher on miss, and write-back. It has no dependency on
// net/http — it can be used by any transport layer.
type Service struct {
	matcher *Matcher
	cache   ResultCache
}

// NewService returns a configured Service.
func NewService(matcher *Matcher, cache ResultCache) *Service {
	return &Service{matcher: matcher, cache: cache}
}

// Match returns the ranked postings for the candidate, serving from cache
// when the CV has not changed. The second return reports whether the result
// came from cache.
//
// Cache failures are never fatal: the cache is an optimization, so a broken
// Get falls through to a fresh computation and a broken Put is only logged.
func (s *Service) Match(ctx context.Context, userID, cvFileURL string, embeddings AspectEmbeddings, threshold float64, windowDays int) ([]MatchResult, bool, error) {
	entry, err := s.cache.Get(ctx, userID, cvFileURL)
	if err != nil {
		slog.Warn("cache get failed, recomputing", "userId", userID, "err", err)
	}
	if entry != nil {
		return entry.Results, true, nil
	}

	results, degraded, err := s.matcher.Match(ctx, embeddings, threshold, windowDays)
	if err != nil {
		return nil, false, err
	}

	// A degraded empty list means "could not rank right now". With no TTL on
	// the cache, writing it would pin a transient outage to this (user, CV)
	// key until the next ingestion event. Only computed rankings — including
	// legitimately empty ones after threshold/recency filtering — are cached.
	if degraded {
		slog.Warn("degraded match result, skipping cache write", "userId", userID)
		return results, false, nil
	}

	if err := s.cache.Put(ctx, userID, cvFileURL, results); err != nil {
		slog.Warn("cache put failed", "userId", userID, "err", err)
	}

	return results, false, nil
}

// Cached returns a previously computed ranking, or nil when none exists.
func (s *Service) Cached(ctx context.Context, userID, cvFileURL string) ([]MatchResult, error) {
	entry, err := s.cache.Get(ctx, userID, cvFileURL)
	if err != nil {
		return nil, fmt.Errorf("cached matches lookup: %w", err)
	}
	if entry == nil {
		return nil, nil
	}
	return entry.Results, nil
}

// InvalidateCache deletes every cached ranking and returns how many were
// removed. Called after any ingestion run, since any change to the posting
// pool can change any cached ranking.
func (s *Service) InvalidateCache(ctx context.Context) (int, error) {
	return s.cache.InvalidateAll(ctx)
}

// ─── Errors ──────────────────────────────────────────────────────────────────

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
