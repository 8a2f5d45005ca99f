package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 3
	maxWorkers       = 10
	defaultRateLimit = 2.0
	maxSlugLength    = 48
)

// ErrNoMatch is recorded for a query whose search found nothing.
var ErrNoMatch = errors.New("no matching track")

// BatchOpts contains configuration for batch recommendation exports.
type BatchOpts struct {
	Format     string  // Export format: text, markdown, csv, json
	OutputDir  string  // Base output directory (default: recommendations_{epoch})
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Queries per second (default: 2)
}

type batchJob struct {
	index int
	query string
}

// manifestEntry is the JSON shape of one result in the manifest.
type manifestEntry struct {
	Query           string `json:"query"`
	TrackID         string `json:"track_id,omitempty"`
	Track           string `json:"track,omitempty"`
	Recommendations int    `json:"recommendations"`
	File            string `json:"file,omitempty"`
	Error           string `json:"error,omitempty"`
}

type manifest struct {
	CreatedAt time.Time       `json:"created_at"`
	Format    string          `json:"format"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Results   []manifestEntry `json:"results"`
}

// BatchRecommend finds recommendations for each query concurrently with rate limiting and progress tracking.
//
// This method implements a worker pool pattern. It handles partial failures gracefully and writes
// a manifest.json summarizing the run next to the per-query files.
func (e *Engine) BatchRecommend(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	queries []string,
	opts BatchOpts,
) (*BatchResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no queries", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatMarkdown
	}
	if _, ok := fileExtensions[opts.Format]; !ok {
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("recommendations_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{
		Total:           len(queries),
		OutputDirectory: opts.OutputDir,
		Results:         make([]BatchItemResult, 0, len(queries)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan batchJob, len(queries))
	results := make(chan BatchItemResult, len(queries))

	for i, q := range queries {
		jobs <- batchJob{index: i, query: q}
	}
	close(jobs)

	e.sendProgress(prog, queuedUpdate(len(queries)))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, limiter, jobs, results, prog, len(queries), opts)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Succeeded++
			e.sendProgress(prog, completedUpdate(completed, len(queries), res.Query, res.Recommendations))
		} else {
			result.Failed++
			e.logger.Warn("batch query failed", "query", res.Query, "error", res.Error)
			e.sendProgress(prog, failedUpdate(completed, len(queries), res.Query, res.Error))
		}
	}

	slices.SortFunc(result.Results, func(a, b BatchItemResult) int { return a.Index - b.Index })

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.sendProgress(prog, doneUpdate(result.Succeeded, result.Total))
	return result, nil
}

// worker processes jobs until the channel drains or ctx ends.
func (e *Engine) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan batchJob,
	results chan<- BatchItemResult,
	prog chan<- ProgressUpdate,
	total int,
	opts BatchOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- BatchItemResult{Index: job.index, Query: job.query, Error: err}
			continue
		}
		e.sendProgress(prog, searchingUpdate(job.index+1, total, job.query))
		results <- e.recommendOne(ctx, job, prog, total, opts)
	}
}

// recommendOne searches for job's query, takes the first match and writes its recommendations.
func (e *Engine) recommendOne(ctx context.Context, job batchJob, prog chan<- ProgressUpdate, total int, opts BatchOpts) BatchItemResult {
	res := BatchItemResult{Index: job.index, Query: job.query}

	search, err := e.client.Search(ctx, job.query)
	switch {
	case err != nil:
		res.Error = fmt.Errorf("search failed: %w", err)
		return res
	case search == nil:
		res.Error = fmt.Errorf("%w: empty search response", shared.ErrDecodeResponse)
		return res
	case !search.Success:
		res.Error = fmt.Errorf("%w: %s", shared.ErrAPIRequest, search.Error)
		return res
	case len(search.Tracks) == 0:
		res.Error = ErrNoMatch
		return res
	}

	track := search.Tracks[0]
	res.Track = &track
	e.sendProgress(prog, recommendingUpdate(job.index+1, total, track.Artist, track.Name))

	recs, err := e.client.Recommend(ctx, track.ID)
	switch {
	case err != nil:
		res.Error = fmt.Errorf("recommend failed: %w", err)
		return res
	case recs == nil:
		res.Error = fmt.Errorf("%w: empty recommend response", shared.ErrDecodeResponse)
		return res
	case !recs.Success:
		res.Error = fmt.Errorf("%w: %s", shared.ErrAPIRequest, recs.Error)
		return res
	}

	data, err := formatter.RenderRecommendations(opts.Format, track.ID, recs.Recommendations)
	if err != nil {
		res.Error = err
		return res
	}

	name := fmt.Sprintf("%03d_%s.%s", job.index+1, slug(job.query), fileExtensions[opts.Format])
	path, err := formatter.WriteFile(filepath.Join(opts.OutputDir, name), data)
	if err != nil {
		res.Error = err
		return res
	}

	res.File = path
	res.Recommendations = len(recs.Recommendations)
	return res
}

var fileExtensions = map[string]string{
	formatter.FormatText:     "txt",
	formatter.FormatMarkdown: "md",
	formatter.FormatCSV:      "csv",
	formatter.FormatJSON:     "json",
}

// slug turns a query into a lowercase, dash-separated file name fragment.
func slug(query string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(query) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	s := strings.TrimSuffix(b.String(), "-")
	if r := []rune(s); len(r) > maxSlugLength {
		s = strings.TrimSuffix(string(r[:maxSlugLength]), "-")
	}
	if s == "" {
		return "query"
	}
	return s
}

func writeManifest(result *BatchResult, format, path string) error {
	m := manifest{
		CreatedAt: time.Now().UTC(),
		Format:    format,
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Results:   make([]manifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := manifestEntry{Query: r.Query, Recommendations: r.Recommendations}
		if r.File != "" {
			entry.File = filepath.Base(r.File)
		}
		if r.Track != nil {
			entry.TrackID = r.Track.ID
			entry.Track = fmt.Sprintf("%s - %s", r.Track.Artist, r.Track.Name)
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Results = append(m.Results, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	_, err = formatter.WriteFile(path, data)
	return err
}
