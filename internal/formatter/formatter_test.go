package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
	th "github.com/desertthunder/songrec/internal/testing"
)

var (
	tracks = []models.Track{
		{ID: "t1", Name: "Imagine", Artist: "John Lennon", PreviewURL: "https://p.example/t1.mp3"},
		{ID: "t2", Name: "Jealous Guy", Artist: "John Lennon"},
	}
	recs = []models.Recommendation{
		{ID: "r1", Name: "Let It Be", Artist: "The Beatles", Similarity: 87, Reason: "Similar tempo", PreviewURL: "https://p.example/r1.mp3"},
		{ID: "r2", Name: "Hey Jude", Artist: "The Beatles", Similarity: 72.5, Reason: "Shared genre: rock"},
	}
)

func TestFormatSimilarity(t *testing.T) {
	tc := []struct {
		in   float64
		want string
	}{
		{87, "87%"},
		{72.5, "72.5%"},
		{0, "0%"},
		{100, "100%"},
	}

	for _, tt := range tc {
		if got := FormatSimilarity(tt.in); got != tt.want {
			t.Errorf("FormatSimilarity(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrackFormatters(t *testing.T) {
	t.Run("TracksToCSV", func(t *testing.T) {
		data, err := TracksToCSV(tracks)
		if err != nil {
			t.Fatalf("TracksToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Name,Artist,Preview\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "t1,Imagine,John Lennon,https://p.example/t1.mp3") {
			t.Errorf("CSV missing first track, got: %s", output)
		}
		if !strings.Contains(output, "t2,Jealous Guy,John Lennon,\n") {
			t.Errorf("CSV missing empty preview column, got: %s", output)
		}
	})

	t.Run("TracksToMarkdown", func(t *testing.T) {
		data, err := TracksToMarkdown("Imagine", tracks)
		if err != nil {
			t.Fatalf("TracksToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Results for \"Imagine\"") {
			t.Errorf("Markdown missing heading, got: %s", output)
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count, got: %s", output)
		}
		if !strings.Contains(output, "1. John Lennon - Imagine `t1`") {
			t.Errorf("Markdown missing first track, got: %s", output)
		}
	})

	t.Run("TracksToText", func(t *testing.T) {
		data, err := TracksToText(tracks)
		if err != nil {
			t.Fatalf("TracksToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing count, got: %s", output)
		}
		if !strings.Contains(output, "2. John Lennon - Jealous Guy [t2]") {
			t.Errorf("Text missing second track, got: %s", output)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := TracksToText(nil)
		if err != nil {
			t.Fatalf("TracksToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Tracks: 0") {
			t.Errorf("expected zero count, got: %s", data)
		}
	})
}

func TestRecommendationFormatters(t *testing.T) {
	t.Run("RecommendationsToCSV", func(t *testing.T) {
		data, err := RecommendationsToCSV(recs)
		if err != nil {
			t.Fatalf("RecommendationsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Name,Artist,Similarity,Reason,Preview\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "r2,Hey Jude,The Beatles,72.5,Shared genre: rock,") {
			t.Errorf("CSV missing second recommendation, got: %s", output)
		}
	})

	t.Run("RecommendationsToMarkdown", func(t *testing.T) {
		data, err := RecommendationsToMarkdown("t1", recs)
		if err != nil {
			t.Fatalf("RecommendationsToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Recommendations for `t1`") {
			t.Errorf("Markdown missing heading, got: %s", output)
		}
		if !strings.Contains(output, "| 1 | Let It Be | The Beatles | 87% | Similar tempo | [listen](https://p.example/r1.mp3) |") {
			t.Errorf("Markdown missing first row, got: %s", output)
		}
		if !strings.Contains(output, "| 2 | Hey Jude | The Beatles | 72.5% | Shared genre: rock | - |") {
			t.Errorf("Markdown missing second row, got: %s", output)
		}
	})

	t.Run("RecommendationsToText", func(t *testing.T) {
		data, err := RecommendationsToText(recs)
		if err != nil {
			t.Fatalf("RecommendationsToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "1. The Beatles - Let It Be (Match: 87%)") {
			t.Errorf("Text missing first recommendation, got: %s", output)
		}
		if !strings.Contains(output, "Preview: https://p.example/r1.mp3") {
			t.Errorf("Text missing preview, got: %s", output)
		}
		if !strings.Contains(output, "No preview available") {
			t.Errorf("Text missing no-preview note, got: %s", output)
		}
	})
}

func TestHistoryToText(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		data, err := HistoryToText(nil)
		if err != nil {
			t.Fatalf("HistoryToText failed: %v", err)
		}
		if !strings.Contains(string(data), "No searches recorded yet.") {
			t.Errorf("unexpected output: %s", data)
		}
	})

	t.Run("Entries", func(t *testing.T) {
		entries := []models.SearchLogEntry{
			{ID: "1", Query: "Imagine", ResultCount: 10, CreatedAt: time.Now()},
		}
		data, err := HistoryToText(entries)
		if err != nil {
			t.Fatalf("HistoryToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Imagine") || !strings.Contains(string(data), "10 results") {
			t.Errorf("unexpected output: %s", data)
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("Tracks", func(t *testing.T) {
		for _, format := range []string{"", FormatText, FormatMarkdown, FormatCSV, FormatJSON} {
			data, err := RenderTracks(format, "Imagine", tracks)
			if err != nil {
				t.Errorf("RenderTracks(%q) failed: %v", format, err)
			}
			if !strings.Contains(string(data), "Imagine") {
				t.Errorf("RenderTracks(%q) missing track, got: %s", format, data)
			}
		}
	})

	t.Run("Recommendations JSON", func(t *testing.T) {
		data, err := RenderRecommendations(FormatJSON, "t1", recs)
		if err != nil {
			t.Fatalf("RenderRecommendations failed: %v", err)
		}
		if !strings.Contains(string(data), `"similarity": 87`) {
			t.Errorf("JSON missing similarity, got: %s", data)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		if _, err := RenderTracks("xml", "", tracks); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if _, err := RenderRecommendations("xml", "", recs); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteFile(t *testing.T) {
	t.Run("Creates Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "recs.csv")

		written, err := WriteFile(path, []byte("ID\n"))
		if err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		th.AssertFileExists(t, written)
		if content := th.MustReadFile(t, written); content != "ID\n" {
			t.Errorf("unexpected content %q", content)
		}
	})

	t.Run("Relative Path In Working Directory", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		if _, err := WriteFile("tracks.txt", []byte("x")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		th.AssertFileExists(t, filepath.Join(tempDir, "tracks.txt"))
	})

	t.Run("Empty Path", func(t *testing.T) {
		if _, err := WriteFile("", nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
