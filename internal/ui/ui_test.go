package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/desertthunder/previewer/internal/tasks"
)

func TestReporter(t *testing.T) {
	t.Run("Render", func(t *testing.T) {
		r := NewReporter(&bytes.Buffer{}, false)
		tests := []struct {
			phase tasks.Phase
			shown bool
		}{
			{tasks.Search, true},
			{tasks.Skip, true},
			{tasks.Fetch, false},
			{tasks.Play, false},
			{tasks.Complete, true},
			{tasks.Failed, true},
		}

		for _, tt := range tests {
			t.Run(tt.phase.String(), func(t *testing.T) {
				got := r.Render(tasks.ProgressUpdate{Phase: tt.phase, Message: "msg-" + tt.phase.String()})
				if tt.shown && !strings.Contains(got, "msg-"+tt.phase.String()) {
					t.Errorf("expected message to be rendered, got %q", got)
				}
				if !tt.shown && got != "" {
					t.Errorf("expected update to be hidden, got %q", got)
				}
			})
		}
	})

	t.Run("Styles By Phase", func(t *testing.T) {
		r := NewReporter(&bytes.Buffer{}, true)
		tests := []struct {
			phase tasks.Phase
			style func(string) string
		}{
			{tasks.Search, Title},
			{tasks.Skip, Warn},
			{tasks.Complete, Success},
			{tasks.Failed, Error},
			{tasks.Fetch, Muted},
			{tasks.Play, Muted},
		}

		for _, tt := range tests {
			got := r.Render(tasks.ProgressUpdate{Phase: tt.phase, Message: "line"})
			if want := tt.style("line"); got != want {
				t.Errorf("%s: expected %q, got %q", tt.phase, want, got)
			}
		}
	})

	t.Run("Verbose Shows Pipeline Phases", func(t *testing.T) {
		r := NewReporter(&bytes.Buffer{}, true)
		if got := r.Render(tasks.ProgressUpdate{Phase: tasks.Fetch, Message: "fetching"}); !strings.Contains(got, "fetching") {
			t.Errorf("expected fetch line in verbose mode, got %q", got)
		}
	})

	t.Run("Watch", func(t *testing.T) {
		var buf bytes.Buffer
		updates := make(chan tasks.ProgressUpdate, 3)
		updates <- tasks.ProgressUpdate{Phase: tasks.Search, Message: "searching"}
		updates <- tasks.ProgressUpdate{Phase: tasks.Fetch, Message: "hidden"}
		updates <- tasks.ProgressUpdate{Phase: tasks.Complete, Message: "done"}
		close(updates)

		<-NewReporter(&buf, false).Watch(updates)

		out := buf.String()
		if !strings.Contains(out, "searching") || !strings.Contains(out, "done") {
			t.Errorf("expected search and completion lines, got %q", out)
		}
		if strings.Contains(out, "hidden") {
			t.Errorf("expected fetch line to be suppressed, got %q", out)
		}
		if lines := strings.Count(out, "\n"); lines != 2 {
			t.Errorf("expected 2 lines, got %d", lines)
		}
	})
}

func TestStyles(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"title": Title, "success": Success, "error": Error, "warn": Warn, "muted": Muted,
	} {
		if got := fn("text"); !strings.Contains(got, "text") {
			t.Errorf("%s: expected text to survive styling, got %q", name, got)
		}
	}
}
