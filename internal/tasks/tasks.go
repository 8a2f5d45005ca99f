// package tasks implements batch recommendation jobs over the songrec API.
package tasks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// Client calls the search and recommendation endpoints.
type Client interface {
	Search(ctx context.Context, query string) (*models.SearchResponse, error)
	Recommend(ctx context.Context, trackID string) (*models.RecommendResponse, error)
}

// BatchItemResult is the outcome of one query in a batch.
type BatchItemResult struct {
	Index           int           // Position in the input list
	Query           string        // Query as given
	Track           *models.Track // Track the recommendations were seeded from (nil if search failed)
	Recommendations int           // Number of recommendations written
	File            string        // Output file (empty on failure)
	Error           error         // Error if the query failed
}

// BatchResult contains all data from a batch run, results in input order.
type BatchResult struct {
	Total           int
	Succeeded       int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []BatchItemResult
}

// Engine runs batch jobs against a [Client].
type Engine struct {
	client Client
	logger *log.Logger
}

// NewEngine creates an engine over client.
func NewEngine(client Client, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Engine{client: client, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ReadQueries reads one query per line, skipping blanks and # comments. Whitespace is normalized.
func ReadQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := shared.NormalizeQuery(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return queries, nil
}
