// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the match service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// EmbeddingDim is the dimension every stored posting embedding and every
	// query vector must share (gemini-embedding-001 → 2048).
	EmbeddingDim int

	// AspectQueryLimit caps the number of neighbors returned per aspect query.
	AspectQueryLimit int

	// AspectQueryTimeoutMS bounds a single nearest-neighbor query. A timed-out
	// aspect contributes no hits instead of failing the whole request.
	AspectQueryTimeoutMS int

	// Calibration bounds shared by all aspects unless tuned per embedding space.
	CalibrationMinSim float64
	CalibrationMaxSim float64

	// Aggregation weights. Must sum to 1.0.
	WeightHardSkills     float64
	WeightSoftSkills     float64
	WeightSectorAffinity float64
	WeightGeneral        float64
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("MATCH_PORT")
	if port == "" {
		port = "8083"
	}

	dim, err := intEnv("EMBEDDING_DIM", 2048)
	if err != nil {
		return nil, err
	}

	limit, err := intEnv("ASPECT_QUERY_LIMIT", 500)
	if err != nil {
		return nil, err
	}

	timeoutMS, err := intEnv("ASPECT_QUERY_TIMEOUT_MS", 3000)
	if err != nil {
		return nil, err
	}

	minSim, err := floatEnv("CALIBRATION_MIN_SIM", 0.8)
	if err != nil {
		return nil, err
	}
	maxSim, err := floatEnv("CALIBRATION_MAX_SIM", 1.0)
	if err != nil {
		return nil, err
	}
	if minSim >= maxSim {
		return nil, fmt.Errorf("CALIBRATION_MIN_SIM (%.2f) must be below CALIBRATION_MAX_SIM (%.2f)", minSim, maxSim)
	}

	wHard, err := floatEnv("WEIGHT_HARD_SKILLS", 0.40)
	if err != nil {
		return nil, err
	}
	wSoft, err := floatEnv("WEIGHT_SOFT_SKILLS", 0.10)
	if err != nil {
		return nil, err
	}
	wSector, err := floatEnv("WEIGHT_SECTOR_AFFINITY", 0.30)
	if err != nil {
		return nil, err
	}
	wGeneral, err := floatEnv("WEIGHT_GENERAL", 0.20)
	if err != nil {
		return nil, err
	}
	if sum := wHard + wSoft + wSector + wGeneral; math.Abs(sum-1.0) > 1e-6 {
		return nil, fmt.Errorf("aspect weights must sum to 1.0, got %.4f", sum)
	}

	return &Config{
		Port:                 port,
		DatabaseURL:          dbURL,
		RedisURL:             redisURL,
		EmbeddingDim:         dim,
		AspectQueryLimit:     limit,
		AspectQueryTimeoutMS: timeoutMS,
		CalibrationMinSim:    minSim,
		CalibrationMaxSim:    maxSim,
		WeightHardSkills:     wHard,
		WeightSoftSkills:     wSoft,
		WeightSectorAffinity: wSector,
		WeightGeneral:        wGeneral,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return v, nil
}

func floatEnv(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number, got %q", name, s)
	}
	return v, nil
}
