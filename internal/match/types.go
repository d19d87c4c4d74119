// Package match contains the pure business logic for the Match service:
// multi-aspect vector matching, score calibration and aggregation, recency
// filtering, and the cached-result orchestration on top of it.
// It is transport-agnostic: used by the HTTP handler in this package and
// usable by any other transport layer.
package match

import "time"

// ─── Aspects ─────────────────────────────────────────────────────────────────

// Aspect is a named semantic facet of a candidate profile, each represented
// by its own embedding vector.
type Aspect string

const (
	AspectHardSkills     Aspect = "hard_skills"
	AspectSoftSkills     Aspect = "soft_skills"
	AspectSectorAffinity Aspect = "sector_affinity"
	AspectGeneral        Aspect = "general"
)

// aspectCategoryAlias is the legacy name for sector_affinity still produced
// by older embedding payloads.
const aspectCategoryAlias Aspect = "category"

// AllAspects lists the recognized aspects in aggregation order.
var AllAspects = []Aspect{AspectHardSkills, AspectSoftSkills, AspectSectorAffinity, AspectGeneral}

// AspectEmbeddings maps each aspect to its query vector. Missing aspects are
// tolerated by the matcher: they contribute raw similarity 0 per document.
type AspectEmbeddings map[Aspect][]float32

// NormalizeAspects canonicalizes alias keys and drops unrecognized aspects.
// The "category" alias maps to sector_affinity; an explicit sector_affinity
// entry wins over the alias.
func NormalizeAspects(in AspectEmbeddings) AspectEmbeddings {
	out := make(AspectEmbeddings, len(in))
	for _, a := range AllAspects {
		if vec, ok := in[a]; ok {
			out[a] = vec
		}
	}
	if _, ok := out[AspectSectorAffinity]; !ok {
		if vec, ok := in[aspectCategoryAlias]; ok {
			out[AspectSectorAffinity] = vec
		}
	}
	return out
}

// ─── Results ─────────────────────────────────────────────────────────────────

// MatchResult is one scored posting returned to the caller.
// Payload carries the posting's free-form fields with the internal fields
// (metadata, embedding, distance) already stripped.
type MatchResult struct {
	ID               string             `json:"id"`
	Payload          map[string]any     `json:"payload"`
	AspectScores     map[Aspect]float64 `json:"aspectScores"` // 0-100 per aspect, always 4 entries
	Total            float64            `json:"total"`        // 0-100 weighted aggregate
	VectorDistance   float64            `json:"vectorDistance"`
	VectorSimilarity float64            `json:"vectorSimilarity"`
	Justifications   map[Aspect]string  `json:"justifications"`
}

// CachedMatches is the cache entry for one (user, CV identity) pair.
type CachedMatches struct {
	UserID    string        `json:"userId"`
	CVFileURL string        `json:"cvFileUrl"`
	Results   []MatchResult `json:"results"`
	CreatedAt time.Time     `json:"createdAt"`
}
