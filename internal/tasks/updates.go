package tasks

import (
	"fmt"

	"github.com/desertthunder/previewer/internal/models"
)

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Completed pipelines so far, or the track index while running
	Total   int    // Playable tracks in this run
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data (a [models.FetchResult] once a pipeline ends)
}

// Phase enumeration
type Phase int

const (
	Search Phase = iota
	Fetch
	Play
	Complete
	Failed
	Skip
)

func (p Phase) String() string {
	switch p {
	case Search:
		return "search"
	case Fetch:
		return "fetch"
	case Play:
		return "play"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	case Skip:
		return "skip"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func searchUpdate(query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Search,
		Message: fmt.Sprintf("Searching Spotify for %q...", query),
	}
}

func skipUpdate(total, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Skip,
		Total:   total,
		Step:    skipped,
		Message: fmt.Sprintf("Skipping %d tracks without a preview", skipped),
	}
}

func fetchUpdate(step, total int, d models.TrackDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching: %s...", step, total, d.Label()),
	}
}

func playUpdate(step, total int, d models.TrackDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Play,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Playing: %s", step, total, d.Label()),
	}
}

func resultUpdate(step, total int, r models.FetchResult) ProgressUpdate {
	if r.Success() {
		return ProgressUpdate{
			Phase:   Complete,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, r.Track.Label(), r.State),
			Data:    r,
		}
	}
	return ProgressUpdate{
		Phase:   Failed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, r.Track.Label(), r.Err),
		Data:    r,
	}
}
