// package repositories provides persistence layer implementations for the request logs.
package repositories

import (
	"context"

	"github.com/desertthunder/songrec/internal/models"
)

// Recorder adapts the two log repositories to the server's request logging hook.
//
// Either repository may be nil, in which case that side is skipped.
type Recorder struct {
	Searches        *SearchLogRepository
	Recommendations *RecommendLogRepository
}

// RecordSearch logs a served search.
func (r *Recorder) RecordSearch(ctx context.Context, query string, resultCount int) error {
	if r == nil || r.Searches == nil {
		return nil
	}
	_, err := r.Searches.Record(ctx, query, resultCount)
	return err
}

// RecordRecommend logs a served recommendation lookup.
func (r *Recorder) RecordRecommend(ctx context.Context, trackID string, resultCount int) error {
	if r == nil || r.Recommendations == nil {
		return nil
	}
	_, err := r.Recommendations.Record(ctx, trackID, resultCount)
	return err
}

// History returns the most recent searches.
func (r *Recorder) History(ctx context.Context, limit int) ([]models.SearchLogEntry, error) {
	if r == nil || r.Searches == nil {
		return nil, nil
	}
	return r.Searches.Recent(ctx, limit)
}
