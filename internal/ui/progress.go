package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/previewer/internal/tasks"
)

// Reporter prints styled progress lines for a run.
type Reporter struct {
	w       io.Writer
	verbose bool
}

// NewReporter creates a reporter writing to w. Unless verbose, per-phase fetch and play
// lines are suppressed and only search, skip and completion lines are shown.
func NewReporter(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose}
}

// Render formats an update, or returns "" when it should not be shown.
func (r *Reporter) Render(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.Search:
		return Title(u.Message)
	case tasks.Skip:
		return Warn(u.Message)
	case tasks.Complete:
		return Success(u.Message)
	case tasks.Failed:
		return Error(u.Message)
	case tasks.Fetch, tasks.Play:
		if !r.verbose {
			return ""
		}
		return Muted(u.Message)
	default:
		return u.Message
	}
}

// Watch prints updates until the channel is closed. The returned channel is closed once
// every update has been printed.
func (r *Reporter) Watch(updates <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range updates {
			if line := r.Render(u); line != "" {
				fmt.Fprintln(r.w, line)
			}
		}
	}()
	return done
}
