// HTTP handlers for the match service.
//
// All routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	POST /match             → compute (or serve cached) ranked matches
//	GET  /matches/cached    → cached ranking for a CV, 404 when none
//	POST /cache/invalidate  → drop every cached ranking (ingestion hook)
package match

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// Request defaults mirror the original matching endpoint.
const (
	defaultThreshold  = 0.5
	defaultWindowDays = 5
)

// ─── Request / response types ────────────────────────────────────────────────

type matchRequest struct {
	CVFileURL  string               `json:"cvFileUrl"`
	Embeddings map[string][]float32 `json:"embeddings"`
	Threshold  *float64             `json:"threshold"`
	SinceDays  *int                 `json:"sinceDays"`
}

type matchResponse struct {
	Matches  []MatchResult `json:"matches"`
	Metadata matchMetadata `json:"metadata"`
}

type matchMetadata struct {
	TotalMatches int  `json:"totalMatches"`
	FromCache    bool `json:"fromCache"`
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all match-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/match", h.handleMatch)
	mux.HandleFunc("/matches/cached", h.handleCached)
	mux.HandleFunc("/cache/invalidate", h.handleInvalidate)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	var body matchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(body.Embeddings) == 0 {
		jsonError(w, "body must contain embeddings", http.StatusBadRequest)
		return
	}

	threshold := defaultThreshold
	if body.Threshold != nil {
		threshold = *body.Threshold
	}
	if threshold < 0 || threshold > 1 {
		jsonError(w, "threshold must be a fraction between 0 and 1", http.StatusBadRequest)
		return
	}

	windowDays := defaultWindowDays
	if body.SinceDays != nil {
		windowDays = *body.SinceDays
	}
	if windowDays < 1 {
		jsonError(w, "sinceDays must be a positive integer", http.StatusBadRequest)
		return
	}

	embeddings := make(AspectEmbeddings, len(body.Embeddings))
	for name, vec := range body.Embeddings {
		embeddings[Aspect(name)] = vec
	}

	results, fromCache, err := h.svc.Match(r.Context(), userID, body.CVFileURL, embeddings, threshold, windowDays)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			jsonError(w, ve.Msg, http.StatusBadRequest)
			return
		}
		log.Printf("[match] match error for user %s: %v", userID, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, matchResponse{
		Matches:  results,
		Metadata: matchMetadata{TotalMatches: len(results), FromCache: fromCache},
	})
}

func (h *Handler) handleCached(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	cvFileURL := r.URL.Query().Get("cvFileUrl")
	if cvFileURL == "" {
		jsonError(w, "cvFileUrl query parameter is required", http.StatusBadRequest)
		return
	}

	results, err := h.svc.Cached(r.Context(), userID, cvFileURL)
	if err != nil {
		log.Printf("[match] cached lookup error for user %s: %v", userID, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if results == nil {
		jsonError(w, "no cached matches", http.StatusNotFound)
		return
	}

	jsonOK(w, matchResponse{
		Matches:  results,
		Metadata: matchMetadata{TotalMatches: len(results), FromCache: true},
	})
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	deleted, err := h.svc.InvalidateCache(r.Context())
	if err != nil {
		log.Printf("[match] cache invalidation error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, map[string]int{"deleted": deleted})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
