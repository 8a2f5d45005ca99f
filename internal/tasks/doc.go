// Package tasks runs long recommendation jobs with real-time progress reporting.
//
// # Core Operations
//
// [Engine.BatchRecommend] takes a list of song queries and, for each one:
//   - searches the API and picks the best (first) match
//   - requests recommendations for that track
//   - renders them with package formatter into one file per query
//
// Queries run on a small worker pool paced by a shared [rate.Limiter] so a large list does not
// hammer the server (and, behind it, the Spotify API). One failed query never stops the batch;
// its error is recorded in the result and the manifest.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters and a message for display.
// Updates use select with default to prevent blocking.
//
// # Input
//
// [ReadQueries] parses a query list: one query per line, blank lines and lines starting with # skipped.
package tasks
