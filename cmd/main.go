// jobmate-match-service
//
// Multi-aspect vector matching between candidate CVs and the job posting
// pool. Exposes a REST API used by the Gateway to implement:
//   - match(embeddings, threshold, sinceDays) — ranked, scored matches
//   - cached matches lookup                   — serve without recomputation
//   - cache invalidation                      — ingestion pipeline hook
//
// Subscribes to EVENT_JOBS_INGESTED on Redis: any ingestion run clears
// every cached ranking.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobmate/match-service/internal/cache"
	"jobmate/match-service/internal/config"
	"jobmate/match-service/internal/db"
	"jobmate/match-service/internal/match"
	"jobmate/match-service/internal/vectorstore"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[match-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL (pgvector) ────────────────────────────────────────────────
	log.Println("[match-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[match-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[match-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[match-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[match-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[match-service] Redis connected ✓")

	// ── Wiring ───────────────────────────────────────────────────────────────
	store := vectorstore.NewPostgres(pool)
	matcher := match.NewMatcher(store, match.MatcherConfig{
		EmbeddingDim: cfg.EmbeddingDim,
		QueryLimit:   cfg.AspectQueryLimit,
		QueryTimeout: time.Duration(cfg.AspectQueryTimeoutMS) * time.Millisecond,
		Calibrations: calibrationsFromConfig(cfg),
		Weights: match.Weights{
			HardSkills:     cfg.WeightHardSkills,
			SoftSkills:     cfg.WeightSoftSkills,
			SectorAffinity: cfg.WeightSectorAffinity,
			General:        cfg.WeightGeneral,
		},
	})
	resultCache := cache.New(rdb)
	svc := match.NewService(matcher, resultCache)

	// Invalidate cached rankings whenever the ingestion pipeline reports a run.
	go resultCache.ListenIngestionEvents(ctx)

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := match.NewHandler(svc)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[match-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[match-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[match-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[match-service] Shutdown error: %v", err)
	}
	log.Println("[match-service] Stopped.")
}

func calibrationsFromConfig(cfg *config.Config) map[match.Aspect]match.Calibration {
	cals := make(map[match.Aspect]match.Calibration, len(match.AllAspects))
	for _, a := range match.AllAspects {
		cals[a] = match.Calibration{MinSim: cfg.CalibrationMinSim, MaxSim: cfg.CalibrationMaxSim}
	}
	return cals
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "match-service",
		"version": version,
	})
}
