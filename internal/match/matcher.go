package match

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobmate/match-service/internal/vectorstore"
)

// ─── Dependencies ────────────────────────────────────────────────────────────

// VectorStore is the read-only nearest-neighbor collection the matcher
// queries, one query per aspect. Implemented by vectorstore.Postgres.
type VectorStore interface {
	NearestNeighbors(ctx context.Context, queryVec []float32, limit int) ([]vectorstore.Neighbor, error)
}

// ─── Matcher ─────────────────────────────────────────────────────────────────

// MatcherConfig tunes a Matcher. Zero values fall back to defaults.
type MatcherConfig struct {
	EmbeddingDim int
	QueryLimit   int
	QueryTimeout time.Duration
	Calibrations map[Aspect]Calibration
	Weights      Weights
	Now          func() time.Time
}

// Matcher runs multi-aspect vector matching: one nearest-neighbor query per
// candidate aspect, merged, calibrated, aggregated, recency-filtered, and
// deterministically ordered.
//
// Ranking is fail-soft: Vector Store failures and a missing general aspect
// produce an empty list, never an error. Only invalid input is rejected.
type Matcher struct {
	store        VectorStore
	dim          int
	queryLimit   int
	queryTimeout time.Duration
	cals         map[Aspect]Calibration
	weights      Weights
	now          func() time.Time
}

// NewMatcher returns a configured Matcher.
func NewMatcher(store VectorStore, cfg MatcherConfig) *Matcher {
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 2048
	}
	if cfg.QueryLimit == 0 {
		cfg.QueryLimit = 500
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 3 * time.Second
	}
	if cfg.Calibrations == nil {
		cfg.Calibrations = DefaultCalibrations()
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Matcher{
		store:        store,
		dim:          cfg.EmbeddingDim,
		queryLimit:   cfg.QueryLimit,
		queryTimeout: cfg.QueryTimeout,
		cals:         cfg.Calibrations,
		weights:      cfg.Weights,
		now:          cfg.Now,
	}
}

// ─── Core algorithm ──────────────────────────────────────────────────────────

// docAgg accumulates one document's per-aspect raw similarities while the
// aspect result sets are merged.
type docAgg struct {
	payload    map[string]any
	distance   float64
	similarity float64
	sims       map[Aspect]float64
}

// Match produces the ranked list of postings for the given candidate
// embeddings. threshold is a fraction in [0,1]; windowDays bounds how old a
// posting's addedAt may be.
//
// Returns a *ValidationError for bad input (no usable aspects, dimension
// mismatch). Every other failure degrades to an empty list with
// degraded=true: such a list means "could not rank right now", not "zero
// qualifying postings", so callers must not cache or otherwise persist it.
func (m *Matcher) Match(ctx context.Context, embeddings AspectEmbeddings, threshold float64, windowDays int) (results []MatchResult, degraded bool, err error) {
	embs := NormalizeAspects(embeddings)
	if len(embs) == 0 {
		return nil, false, &ValidationError{Msg: "at least one recognized aspect embedding is required"}
	}
	for aspect, vec := range embs {
		if len(vec) != m.dim {
			return nil, false, &ValidationError{
				Msg: fmt.Sprintf("aspect %s has %d dimensions, expected %d", aspect, len(vec), m.dim),
			}
		}
	}

	// The general aspect anchors the ranking. Without it no meaningful
	// comparison is possible, so degrade to "no matches" instead of erroring.
	if _, ok := embs[AspectGeneral]; !ok {
		slog.Warn("match request missing general aspect, returning empty result")
		return []MatchResult{}, true, nil
	}

	hits, ok := m.queryAspects(ctx, embs)
	if !ok {
		return []MatchResult{}, true, nil
	}

	docs := mergeAspectHits(hits)

	cutoff := m.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)
	results = make([]MatchResult, 0, len(docs))
	for id, doc := range docs {
		scores := make(map[Aspect]float64, len(AllAspects))
		for _, aspect := range AllAspects {
			// Absent aspect → raw similarity 0 → calibration floor.
			scores[aspect] = round(m.cals[aspect].Normalize(doc.sims[aspect]), 1)
		}
		total := m.weights.Aggregate(scores)

		if total < threshold*100 {
			continue
		}

		addedAt, err := ParseAddedAt(addedAtField(doc.payload))
		if err != nil || addedAt.Before(cutoff) {
			continue
		}

		results = append(results, m.formatResult(id, doc, scores, total))
	}

	// Total descending; document id ascending breaks ties so repeated calls
	// return identical orderings.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		return results[i].ID < results[j].ID
	})

	slog.Info("match computed",
		"aspects", len(embs), "candidates", len(docs), "results", len(results))
	return results, false, nil
}

// queryAspects runs one nearest-neighbor query per aspect concurrently.
// A failing or timed-out non-general aspect is absorbed (it simply
// contributes no hits); a failing general query aborts the whole match
// (ok=false), since the store is evidently unreachable.
func (m *Matcher) queryAspects(ctx context.Context, embs AspectEmbeddings) (map[Aspect][]vectorstore.Neighbor, bool) {
	var (
		mu         sync.Mutex
		hits       = make(map[Aspect][]vectorstore.Neighbor, len(embs))
		generalErr error
	)

	g := new(errgroup.Group)
	for aspect, vec := range embs {
		aspect, vec := aspect, vec
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(ctx, m.queryTimeout)
			defer cancel()

			neighbors, err := m.store.NearestNeighbors(qctx, vec, m.queryLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("aspect query failed", "aspect", aspect, "err", err)
				if aspect == AspectGeneral {
					generalErr = err
				}
				return nil
			}
			hits[aspect] = neighbors
			return nil
		})
	}
	// Tasks never return errors: per-aspect failures are absorbed above.
	_ = g.Wait()

	if generalErr != nil {
		return nil, false
	}
	return hits, true
}

// mergeAspectHits builds the union of documents seen across the aspect
// queries. Aspects are walked in fixed order so payload and diagnostics
// selection is deterministic; the general query's values win when present.
func mergeAspectHits(hits map[Aspect][]vectorstore.Neighbor) map[string]*docAgg {
	docs := make(map[string]*docAgg)
	for _, aspect := range AllAspects {
		for _, n := range hits[aspect] {
			sim := 1.0 - n.Distance
			if sim < 0 {
				sim = 0
			}

			doc, seen := docs[n.ID]
			if !seen {
				doc = &docAgg{
					payload:    n.Payload,
					distance:   n.Distance,
					similarity: sim,
					sims:       make(map[Aspect]float64, len(AllAspects)),
				}
				docs[n.ID] = doc
			}
			doc.sims[aspect] = sim

			if aspect == AspectGeneral {
				doc.payload = n.Payload
				doc.distance = n.Distance
				doc.similarity = sim
			}
		}
	}
	return docs
}

// ─── Result formatting ───────────────────────────────────────────────────────

// strippedFields never leave the service: they are internal to the vector
// collection and meaningless (or huge) for API consumers.
var strippedFields = map[string]struct{}{
	"metadata":        {},
	"embedding":       {},
	"vector_distance": {},
	"vectorDistance":  {},
}

func (m *Matcher) formatResult(id string, doc *docAgg, scores map[Aspect]float64, total float64) MatchResult {
	payload := make(map[string]any, len(doc.payload))
	for k, v := range doc.payload {
		if _, strip := strippedFields[k]; strip {
			continue
		}
		payload[k] = v
	}

	return MatchResult{
		ID:               id,
		Payload:          payload,
		AspectScores:     scores,
		Total:            round(total, 1),
		VectorDistance:   round(doc.distance, 4),
		VectorSimilarity: round(doc.similarity, 4),
		Justifications: map[Aspect]string{
			AspectHardSkills:     fmt.Sprintf("Technical skills match: %.1f%% (hard_skills embedding)", scores[AspectHardSkills]),
			AspectSoftSkills:     fmt.Sprintf("Soft skills match: %.1f%% (soft_skills embedding)", scores[AspectSoftSkills]),
			AspectSectorAffinity: fmt.Sprintf("Sector affinity: %.1f%% (degrees + category embedding)", scores[AspectSectorAffinity]),
			AspectGeneral:        fmt.Sprintf("Overall profile match: %.1f%% (general embedding, distance %.4f)", scores[AspectGeneral], doc.distance),
		},
	}
}

// addedAtField extracts the posting's timestamp from its payload. Older
// ingestion runs wrote the field under its legacy name.
func addedAtField(payload map[string]any) any {
	if v, ok := payload["addedAt"]; ok {
		return v
	}
	return payload["fecha_agregado"]
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
