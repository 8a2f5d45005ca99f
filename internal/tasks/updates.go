package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	Queue Phase = iota
	SearchTrack
	FetchRecommendations
	WriteOutput
	Done
)

func (p Phase) String() string {
	switch p {
	case Queue:
		return "queue"
	case SearchTrack:
		return "search_track"
	case FetchRecommendations:
		return "fetch_recommendations"
	case WriteOutput:
		return "write_output"
	case Done:
		return "done"
	default:
		return ""
	}
}

func queuedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Queue,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Queued %d searches...", total),
	}
}

func searchingUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s...", step, total, query),
	}
}

func recommendingUpdate(step, total int, artist, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecommendations,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Finding songs like %s - %s...", step, total, artist, name),
	}
}

func completedUpdate(step, total int, query string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d recommendations)", step, total, query, count),
	}
}

func failedUpdate(step, total int, query string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, query, err),
	}
}

func doneUpdate(succeeded, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Finished: %d/%d succeeded", succeeded, total),
	}
}
