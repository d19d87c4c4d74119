package match_test

import (
	"context"
	"testing"
	"time"

	"jobmate/match-service/internal/match"
	"jobmate/match-service/internal/vectorstore"
)

// ── Fake cache ─────────────────────────────────────────────────────────────

type fakeCache struct {
	entries map[string]*match.CachedMatches
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*match.CachedMatches)}
}

func (f *fakeCache) key(userID, cvFileURL string) string { return userID + "|" + cvFileURL }

func (f *fakeCache) Get(ctx context.Context, userID, cvFileURL string) (*match.CachedMatches, error) {
	if cvFileURL == "" {
		return nil, nil
	}
	return f.entries[f.key(userID, cvFileURL)], nil
}

func (f *fakeCache) Put(ctx context.Context, userID, cvFileURL string, results []match.MatchResult) error {
	f.puts++
	if cvFileURL == "" {
		return nil
	}
	f.entries[f.key(userID, cvFileURL)] = &match.CachedMatches{
		UserID:    userID,
		CVFileURL: cvFileURL,
		Results:   results,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (f *fakeCache) InvalidateAll(ctx context.Context) (int, error) {
	n := len(f.entries)
	f.entries = make(map[string]*match.CachedMatches)
	return n, nil
}

// ── Service behavior ───────────────────────────────────────────────────────

func serviceFixture() (*match.Service, *fakeStore, *fakeCache) {
	store := &fakeStore{
		responses: map[float32][]vectorstore.Neighbor{
			markerGeneral: {posting("p1", 0.05, recentISO(1))},
		},
	}
	fc := newFakeCache()
	svc := match.NewService(testMatcher(store), fc)
	return svc, store, fc
}

func TestService_CacheIdempotency(t *testing.T) {
	svc, store, _ := serviceFixture()
	ctx := context.Background()
	embs := match.AspectEmbeddings{match.AspectGeneral: vec(markerGeneral)}

	first, fromCache, err := svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromCache {
		t.Error("first call must compute, not hit cache")
	}
	queriesAfterFirst := store.callCount()

	second, fromCache, err := svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fromCache {
		t.Error("second call with unchanged CV must be served from cache")
	}
	if store.callCount() != queriesAfterFirst {
		t.Errorf("second call re-queried the vector store (%d → %d queries)", queriesAfterFirst, store.callCount())
	}
	if len(first) != len(second) || first[0].ID != second[0].ID || first[0].Total != second[0].Total {
		t.Errorf("cached result differs from computed result:\n%+v\n%+v", first, second)
	}
}

func TestService_MissingCVIdentityDisablesCacheReuse(t *testing.T) {
	svc, store, _ := serviceFixture()
	ctx := context.Background()
	embs := match.AspectEmbeddings{match.AspectGeneral: vec(markerGeneral)}

	if _, fromCache, err := svc.Match(ctx, "user-1", "", embs, 0, 5); err != nil || fromCache {
		t.Fatalf("first call: fromCache=%v err=%v", fromCache, err)
	}
	queriesAfterFirst := store.callCount()

	if _, fromCache, err := svc.Match(ctx, "user-1", "", embs, 0, 5); err != nil || fromCache {
		t.Fatalf("second call: fromCache=%v err=%v", fromCache, err)
	}
	if store.callCount() == queriesAfterFirst {
		t.Error("without a CV identity every call must recompute")
	}
}

func TestService_InvalidationLaw(t *testing.T) {
	svc, _, _ := serviceFixture()
	ctx := context.Background()
	embs := match.AspectEmbeddings{match.AspectGeneral: vec(markerGeneral)}

	if _, _, err := svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached, err := svc.Cached(ctx, "user-1", "https://cdn/cv/abc.pdf"); err != nil || cached == nil {
		t.Fatalf("expected cached entry before invalidation, got %v err=%v", cached, err)
	}

	deleted, err := svc.InvalidateCache(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("invalidation deleted %d entries, want 1", deleted)
	}

	cached, err := svc.Cached(ctx, "user-1", "https://cdn/cv/abc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached != nil {
		t.Errorf("cached entry survived invalidation: %+v", cached)
	}
}

// A store outage yields an empty fail-soft response. That response must not
// be written to the no-TTL cache: once the store recovers, the next call has
// to compute a real ranking instead of replaying the outage forever.
func TestService_TransientStoreOutageIsNotCached(t *testing.T) {
	svc, store, fc := serviceFixture()
	ctx := context.Background()
	embs := match.AspectEmbeddings{match.AspectGeneral: vec(markerGeneral)}

	store.setErr(markerGeneral, context.DeadlineExceeded)
	during, fromCache, err := svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0, 5)
	if err != nil {
		t.Fatalf("store outage must degrade, not error: %v", err)
	}
	if len(during) != 0 || fromCache {
		t.Fatalf("during outage: results=%d fromCache=%v, want empty computed response", len(during), fromCache)
	}
	if fc.puts != 0 {
		t.Fatalf("degraded response was cached (%d puts)", fc.puts)
	}

	store.setErr(markerGeneral, nil)
	after, fromCache, err := svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if fromCache {
		t.Fatal("call after recovery was served from cache instead of recomputed")
	}
	if len(after) != 1 || after[0].ID != "p1" {
		t.Fatalf("expected the real ranking after recovery, got %+v", after)
	}

	if _, fromCache, err = svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0, 5); err != nil || !fromCache {
		t.Errorf("recomputed ranking should now be cached: fromCache=%v err=%v", fromCache, err)
	}
}

// An empty ranking the matcher actually computed (every posting below the
// threshold) is a valid answer and is cached like any other.
func TestService_EmptyComputedRankingIsCached(t *testing.T) {
	svc, store, fc := serviceFixture()
	ctx := context.Background()
	embs := match.AspectEmbeddings{match.AspectGeneral: vec(markerGeneral)}

	first, fromCache, err := svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0.99, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 0 || fromCache {
		t.Fatalf("first call: results=%d fromCache=%v, want computed empty ranking", len(first), fromCache)
	}
	if fc.puts != 1 {
		t.Fatalf("computed empty ranking was not cached (%d puts)", fc.puts)
	}
	queriesAfterFirst := store.callCount()

	second, fromCache, err := svc.Match(ctx, "user-1", "https://cdn/cv/abc.pdf", embs, 0.99, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fromCache || len(second) != 0 {
		t.Errorf("second call: results=%d fromCache=%v, want cached empty ranking", len(second), fromCache)
	}
	if store.callCount() != queriesAfterFirst {
		t.Errorf("second call re-queried the vector store (%d → %d queries)", queriesAfterFirst, store.callCount())
	}
}

func TestService_ValidationErrorPropagates(t *testing.T) {
	svc, _, fc := serviceFixture()
	_, _, err := svc.Match(context.Background(), "user-1", "https://cdn/cv/abc.pdf", match.AspectEmbeddings{}, 0, 5)
	if err == nil {
		t.Fatal("expected validation error for empty embeddings")
	}
	if fc.puts != 0 {
		t.Errorf("failed match must not be cached, got %d puts", fc.puts)
	}
}
