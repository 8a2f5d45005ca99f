package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// RecommendLogRepository persists recommendation lookups served by the recommend endpoint.
type RecommendLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecommendLogRepository creates a new RecommendLogRepository with the given database connection
func NewRecommendLogRepository(db *sql.DB) *RecommendLogRepository {
	return &RecommendLogRepository{db: db, now: time.Now}
}

// Record inserts a log entry for trackID.
func (r *RecommendLogRepository) Record(ctx context.Context, trackID string, resultCount int) (*models.RecommendLogEntry, error) {
	entry := &models.RecommendLogEntry{
		ID:          shared.GenerateID(),
		TrackID:     trackID,
		ResultCount: resultCount,
		CreatedAt:   r.now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recommend_log (id, track_id, result_count, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.TrackID, entry.ResultCount, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recommend log entry: %w", err)
	}

	return entry, nil
}

// CountForTrack returns how many times recommendations were requested for trackID.
func (r *RecommendLogRepository) CountForTrack(ctx context.Context, trackID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommend_log WHERE track_id = ?`, trackID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recommend log: %w", err)
	}
	return n, nil
}
