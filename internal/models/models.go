// package models defines the data model for the song recommendation service
package models

import (
	"fmt"
	"strings"
	"time"
)

// Track is a song returned by search, identified by an opaque id.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// Recommendation is a song suggested as similar to a selected track.
//
// Similarity is a percentage in [0, 100] whose meaning is defined by the recommending service.
type Recommendation struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Artist     string  `json:"artist"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
	PreviewURL string  `json:"preview_url,omitempty"`
}

// HasPreview reports whether an audio preview can be embedded.
func (r Recommendation) HasPreview() bool {
	return r.PreviewURL != ""
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the body returned by POST /search.
type SearchResponse struct {
	Success bool    `json:"success"`
	Tracks  []Track `json:"tracks,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	TrackID string `json:"track_id"`
}

// RecommendResponse is the body returned by POST /recommend.
type RecommendResponse struct {
	Success         bool             `json:"success"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// SearchLogEntry is a persisted record of a query served by the search endpoint.
type SearchLogEntry struct {
	ID          string
	Query       string
	ResultCount int
	CreatedAt   time.Time
}

// Validate checks required fields before the entry is written.
func (e *SearchLogEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("search log entry id is required")
	}
	if strings.TrimSpace(e.Query) == "" {
		return fmt.Errorf("search log entry query is required")
	}
	if e.ResultCount < 0 {
		return fmt.Errorf("search log entry result count must not be negative")
	}
	return nil
}

// RecommendLogEntry is a persisted record of a recommendation lookup.
type RecommendLogEntry struct {
	ID          string
	TrackID     string
	ResultCount int
	CreatedAt   time.Time
}

// Validate checks required fields before the entry is written.
func (e *RecommendLogEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("recommend log entry id is required")
	}
	if e.TrackID == "" {
		return fmt.Errorf("recommend log entry track id is required")
	}
	return nil
}
