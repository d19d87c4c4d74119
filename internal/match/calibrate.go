package match

// ─── Aspect calibration ──────────────────────────────────────────────────────

// Empirically, cosine similarities in this embedding space cluster in a
// narrow high band: unrelated documents still land around 0.8. Calibration
// rescales that band to a 0-100 score so results are comparable across
// queries and users. Bounds are fixed constants per aspect, never derived
// from the result batch.
const (
	// calibrationFloor is reported for similarities at or below MinSim,
	// before the final minimum clamp.
	calibrationFloor = 0.2

	// calibrationCeil is reported for similarities at or above MaxSim.
	calibrationCeil = 99.0

	// minAspectScore is the lowest score ever reported for an aspect.
	// Embeddings always carry residual similarity, so a score of exactly 0
	// would wrongly imply "no relation at all".
	minAspectScore = 1.0
)

// Calibration holds the observed similarity span for one aspect's
// embedding space.
type Calibration struct {
	MinSim float64
	MaxSim float64
}

// DefaultCalibration is the span observed for gemini-embedding-001 vectors.
var DefaultCalibration = Calibration{MinSim: 0.8, MaxSim: 1.0}

// DefaultCalibrations applies the default span to every aspect.
func DefaultCalibrations() map[Aspect]Calibration {
	cals := make(map[Aspect]Calibration, len(AllAspects))
	for _, a := range AllAspects {
		cals[a] = DefaultCalibration
	}
	return cals
}

// Normalize converts a raw cosine similarity into a calibrated score in
// [1, 99]. Similarities below the span hit a fixed floor, above it a fixed
// ceiling, and inside it a linear interpolation.
func (c Calibration) Normalize(rawSimilarity float64) float64 {
	var score float64
	switch {
	case rawSimilarity <= c.MinSim:
		score = calibrationFloor
	case rawSimilarity >= c.MaxSim:
		score = calibrationCeil
	default:
		score = (rawSimilarity - c.MinSim) / (c.MaxSim - c.MinSim) * 100
	}

	if score < minAspectScore {
		score = minAspectScore
	}
	if score > calibrationCeil {
		score = calibrationCeil
	}
	return score
}

// ─── Score aggregation ───────────────────────────────────────────────────────

// Weights combines the four calibrated aspect scores into one total.
// The weights must sum to 1.0 so the total stays on the 0-100 scale.
type Weights struct {
	HardSkills     float64
	SoftSkills     float64
	SectorAffinity float64
	General        float64
}

// DefaultWeights is the production weighting: technical skills dominate,
// sector affinity second, general profile third, soft skills last.
var DefaultWeights = Weights{
	HardSkills:     0.40,
	SoftSkills:     0.10,
	SectorAffinity: 0.30,
	General:        0.20,
}

// Aggregate returns the weighted total for one document's aspect scores.
// A missing aspect entry contributes its zero value, which the matcher never
// produces (every document gets all four scores).
func (w Weights) Aggregate(scores map[Aspect]float64) float64 {
	return scores[AspectHardSkills]*w.HardSkills +
		scores[AspectSoftSkills]*w.SoftSkills +
		scores[AspectSectorAffinity]*w.SectorAffinity +
		scores[AspectGeneral]*w.General
}
