package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// Error messages returned in the error field of the JSON API.
const (
	ErrMsgNoQuery         = "No search query provided"
	ErrMsgSearchFailed    = "Error searching for songs"
	ErrMsgNoTrackID       = "No track ID provided"
	ErrMsgInvalidTrack    = "Invalid track ID or Spotify API error"
	ErrMsgNoSimilar       = "Could not find similar songs. Please try another track."
	ErrMsgRecommendFailed = "Server error while getting recommendations"
	ErrMsgInvalidBody     = "Invalid request body"
)

const maxRequestBodyBytes = 1 << 20

// Recommender answers searches and recommendation lookups.
type Recommender interface {
	Search(ctx context.Context, query string) ([]models.Track, error)
	Recommend(ctx context.Context, trackID string) ([]models.Recommendation, error)
}

// RequestLog records served requests. Failures are logged and never fail the request.
type RequestLog interface {
	RecordSearch(ctx context.Context, query string, resultCount int) error
	RecordRecommend(ctx context.Context, trackID string, resultCount int) error
}

// APIHandler serves POST /search, POST /recommend and GET /health.
//
// Application failures are reported with 200 and success=false so the page can show the message;
// only an undecodable body gets a 400.
type APIHandler struct {
	recommender Recommender
	requests    RequestLog
	logger      *log.Logger
	mux         *http.ServeMux
}

// NewAPIHandler creates the JSON API over recommender. requests may be nil.
func NewAPIHandler(recommender Recommender, requests RequestLog, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	h := &APIHandler{
		recommender: recommender,
		requests:    requests,
		logger:      logger,
		mux:         http.NewServeMux(),
	}
	h.mux.HandleFunc("POST /search", h.search)
	h.mux.HandleFunc("POST /recommend", h.recommend)
	h.mux.HandleFunc("GET /health", h.health)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{"POST /search", "POST /recommend", "GET /health"}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *APIHandler) search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !h.decode(w, r, &req) {
		return
	}

	query := shared.NormalizeQuery(req.Query)
	if query == "" {
		writeJSON(w, http.StatusOK, models.SearchResponse{Error: ErrMsgNoQuery})
		return
	}

	tracks, err := h.recommender.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search error", "query", query, "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusOK, models.SearchResponse{Error: ErrMsgSearchFailed})
		return
	}

	h.logger.Info("found tracks", "query", query, "count", len(tracks))
	if h.requests != nil {
		if err := h.requests.RecordSearch(r.Context(), query, len(tracks)); err != nil {
			h.logger.Warn("failed to record search", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{Success: true, Tracks: tracks})
}

func (h *APIHandler) recommend(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if v := recover(); v != nil {
			h.logger.Error("error in recommend route", "panic", v, "request_id", RequestIDFromContext(r.Context()))
			writeJSON(w, http.StatusOK, models.RecommendResponse{Error: ErrMsgRecommendFailed})
		}
	}()

	var req models.RecommendRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.TrackID = strings.TrimSpace(req.TrackID)
	if req.TrackID == "" {
		h.logger.Error("no track ID provided in request")
		writeJSON(w, http.StatusOK, models.RecommendResponse{Error: ErrMsgNoTrackID})
		return
	}

	recs, err := h.recommender.Recommend(r.Context(), req.TrackID)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("recommendation lookup aborted", "track_id", req.TrackID, "error", err)
		writeJSON(w, http.StatusOK, models.RecommendResponse{Error: ErrMsgRecommendFailed})
		return
	case err != nil:
		h.logger.Error("failed to get track info", "track_id", req.TrackID, "error", err)
		writeJSON(w, http.StatusOK, models.RecommendResponse{Error: ErrMsgInvalidTrack})
		return
	}

	if h.requests != nil {
		if err := h.requests.RecordRecommend(r.Context(), req.TrackID, len(recs)); err != nil {
			h.logger.Warn("failed to record recommendation", "error", err)
		}
	}

	if len(recs) == 0 {
		h.logger.Warn("no recommendations found", "track_id", req.TrackID)
		writeJSON(w, http.StatusOK, models.RecommendResponse{Error: ErrMsgNoSimilar})
		return
	}

	h.logger.Info("found recommendations", "track_id", req.TrackID, "count", len(recs))
	writeJSON(w, http.StatusOK, models.RecommendResponse{Success: true, Recommendations: recs})
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v, answering 400 itself when that fails.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": ErrMsgInvalidBody})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
