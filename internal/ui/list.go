package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = recommendationItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track  models.Track
	active bool
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string {
	if i.active {
		return styles.active.Render("▶ " + i.track.Name)
	}
	return i.track.Name
}
func (i trackItem) Description() string { return i.track.Artist }

// recommendationItem wraps [models.Recommendation] to implement [list.Item].
type recommendationItem struct {
	rec models.Recommendation
}

func (i recommendationItem) FilterValue() string { return i.rec.Name }
func (i recommendationItem) Title() string {
	return fmt.Sprintf("%s - %s", i.rec.Artist, i.rec.Name)
}
func (i recommendationItem) Description() string {
	desc := fmt.Sprintf("Match: %s • %s", formatter.FormatSimilarity(i.rec.Similarity), i.rec.Reason)
	if !i.rec.HasPreview() {
		desc += " • no preview"
	}
	return desc
}

func trackItems(tracks []models.Track, activeID string) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, active: t.ID == activeID}
	}
	return items
}

func recommendationItems(recs []models.Recommendation) []list.Item {
	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = recommendationItem{rec: r}
	}
	return items
}
