// package formatter renders search results, recommendations and search history as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// FormatSimilarity renders a similarity score as a whole or fractional percentage, e.g. 87 -> "87%".
func FormatSimilarity(similarity float64) string {
	return strconv.FormatFloat(similarity, 'f', -1, 64) + "%"
}

// TracksToCSV converts search results to CSV with columns: ID, Name, Artist, Preview
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		rows = append(rows, []string{track.ID, track.Name, track.Artist, track.PreviewURL})
	}
	return writeCSV([]string{"ID", "Name", "Artist", "Preview"}, rows)
}

// TracksToMarkdown converts search results to a numbered Markdown list under a heading for query.
func TracksToMarkdown(query string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Results for \"%s\"\n\n", query))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s `%s`\n", i+1, track.Artist, track.Name, track.ID))
	}

	return buf.Bytes(), nil
}

// TracksToText converts search results to plain text, one track per line with its id.
func TracksToText(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))
	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", i+1, track.Artist, track.Name, track.ID))
	}

	return buf.Bytes(), nil
}

// RecommendationsToCSV converts recommendations to CSV with columns: ID, Name, Artist, Similarity, Reason, Preview
func RecommendationsToCSV(recs []models.Recommendation) ([]byte, error) {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, []string{
			rec.ID,
			rec.Name,
			rec.Artist,
			strconv.FormatFloat(rec.Similarity, 'f', -1, 64),
			rec.Reason,
			rec.PreviewURL,
		})
	}
	return writeCSV([]string{"ID", "Name", "Artist", "Similarity", "Reason", "Preview"}, rows)
}

// RecommendationsToMarkdown converts recommendations to a Markdown table for the seed trackID.
func RecommendationsToMarkdown(trackID string, recs []models.Recommendation) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Recommendations for `%s`\n\n", trackID))
	buf.WriteString("| # | Song | Artist | Match | Reason | Preview |\n")
	buf.WriteString("|---|------|--------|-------|--------|---------|\n")

	for i, rec := range recs {
		preview := "-"
		if rec.HasPreview() {
			preview = fmt.Sprintf("[listen](%s)", rec.PreviewURL)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			i+1, rec.Name, rec.Artist, FormatSimilarity(rec.Similarity), rec.Reason, preview))
	}

	return buf.Bytes(), nil
}

// RecommendationsToText converts recommendations to plain text.
func RecommendationsToText(recs []models.Recommendation) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Recommendations: %d\n\n", len(recs)))
	for i, rec := range recs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (Match: %s)\n", i+1, rec.Artist, rec.Name, FormatSimilarity(rec.Similarity)))
		buf.WriteString(fmt.Sprintf("   %s\n", rec.Reason))
		if rec.HasPreview() {
			buf.WriteString(fmt.Sprintf("   Preview: %s\n", rec.PreviewURL))
		} else {
			buf.WriteString("   No preview available\n")
		}
	}

	return buf.Bytes(), nil
}

// HistoryToText converts search log entries to plain text, newest first as given.
func HistoryToText(entries []models.SearchLogEntry) ([]byte, error) {
	var buf bytes.Buffer

	if len(entries) == 0 {
		buf.WriteString("No searches recorded yet.\n")
		return buf.Bytes(), nil
	}

	for _, entry := range entries {
		buf.WriteString(fmt.Sprintf("%s  %-40s %d results\n",
			entry.CreatedAt.Local().Format(time.DateTime), entry.Query, entry.ResultCount))
	}

	return buf.Bytes(), nil
}

// ToJSON renders v as indented JSON.
func ToJSON(v any) ([]byte, error) {
	return shared.MarshalJSON(v, true)
}

// RenderTracks renders search results in the named format.
func RenderTracks(format, query string, tracks []models.Track) ([]byte, error) {
	switch format {
	case FormatText, "":
		return TracksToText(tracks)
	case FormatMarkdown:
		return TracksToMarkdown(query, tracks)
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatJSON:
		return ToJSON(tracks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// RenderRecommendations renders recommendations in the named format.
func RenderRecommendations(format, trackID string, recs []models.Recommendation) ([]byte, error) {
	switch format {
	case FormatText, "":
		return RecommendationsToText(recs)
	case FormatMarkdown:
		return RecommendationsToMarkdown(trackID, recs)
	case FormatCSV:
		return RecommendationsToCSV(recs)
	case FormatJSON:
		return ToJSON(recs)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteFile writes rendered output to path, creating parent directories as needed.
func WriteFile(path string, data []byte) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty output path", shared.ErrInvalidArgument)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
