package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// SearchLogRepository persists queries served by the search endpoint.
type SearchLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSearchLogRepository creates a new SearchLogRepository with the given database connection
func NewSearchLogRepository(db *sql.DB) *SearchLogRepository {
	return &SearchLogRepository{db: db, now: time.Now}
}

// Record inserts a log entry for query with a generated ID and the current time.
func (r *SearchLogRepository) Record(ctx context.Context, query string, resultCount int) (*models.SearchLogEntry, error) {
	entry := &models.SearchLogEntry{
		ID:          shared.GenerateID(),
		Query:       shared.NormalizeQuery(query),
		ResultCount: resultCount,
		CreatedAt:   r.now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO search_log (id, query, result_count, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Query, entry.ResultCount, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert search log entry: %w", err)
	}

	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (r *SearchLogRepository) Recent(ctx context.Context, limit int) ([]models.SearchLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, query, result_count, created_at
		FROM search_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search log: %w", err)
	}
	defer rows.Close()

	var entries []models.SearchLogEntry
	for rows.Next() {
		var e models.SearchLogEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.ResultCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search log entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search log: %w", err)
	}

	return entries, nil
}

// Count returns the number of logged searches.
func (r *SearchLogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count search log: %w", err)
	}
	return n, nil
}
