package page

import "github.com/desertthunder/songrec/internal/models"

// State is the phase the page is in.
type State int

const (
	Idle State = iota
	LoadingSearch
	ShowingResults
	LoadingRecommendations
	ShowingRecommendations
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingSearch:
		return "loading search"
	case ShowingResults:
		return "showing results"
	case LoadingRecommendations:
		return "loading recommendations"
	case ShowingRecommendations:
		return "showing recommendations"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the page's displayed data.
//
// Tracks is empty while an error is displayed; ActiveID is the selected card, if any.
type Snapshot struct {
	State                  State
	Loading                bool
	Tracks                 []models.Track
	ActiveID               string
	Recommendations        []models.Recommendation
	RecommendationsVisible bool
	Error                  string
}
