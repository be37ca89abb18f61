package models

import (
	"errors"
	"strings"
	"time"

	"github.com/desertthunder/previewer/internal/shared"
)

// TrackDescriptor is a track returned by the search API.
type TrackDescriptor struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists,omitempty"`
	PreviewURL *string  `json:"preview_url"`
}

// NewTrackDescriptor builds a descriptor. An empty previewURL yields a non-playable descriptor.
func NewTrackDescriptor(id, name, previewURL string, artists ...string) TrackDescriptor {
	d := TrackDescriptor{ID: id, Name: name, Artists: artists}
	if previewURL != "" {
		d.PreviewURL = &previewURL
	}
	return d
}

// Playable reports whether the descriptor has a preview URL.
func (d TrackDescriptor) Playable() bool {
	return d.PreviewURL != nil && *d.PreviewURL != ""
}

// URL returns the preview URL or "".
func (d TrackDescriptor) URL() string {
	if d.PreviewURL == nil {
		return ""
	}
	return *d.PreviewURL
}

// Key identifies the track within a run: its ID when known, otherwise its name.
func (d TrackDescriptor) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Name
}

// Label is "Artist - Name" for display.
func (d TrackDescriptor) Label() string {
	if len(d.Artists) == 0 {
		return d.Name
	}
	return strings.Join(d.Artists, ", ") + " - " + d.Name
}

// Playable filters descriptors down to those with a preview URL, preserving order.
func Playable(descriptors []TrackDescriptor) []TrackDescriptor {
	out := make([]TrackDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Playable() {
			out = append(out, d)
		}
	}
	return out
}

// PipelineState is the per-track state machine:
//
//	Pending → Fetching → (FetchFailed | Fetched) → Playing → (PlayFailed | Played)
type PipelineState int

const (
	Pending PipelineState = iota
	Fetching
	FetchFailed
	Fetched
	Playing
	PlayFailed
	Played
)

func (s PipelineState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fetching:
		return "fetching"
	case FetchFailed:
		return "fetch_failed"
	case Fetched:
		return "fetched"
	case Playing:
		return "playing"
	case PlayFailed:
		return "play_failed"
	case Played:
		return "played"
	default:
		return "unknown"
	}
}

// Failed reports whether the state is a failure state.
func (s PipelineState) Failed() bool {
	return s == FetchFailed || s == PlayFailed
}

// Terminal reports whether a pipeline may stop in this state. Fetched is terminal only when
// the run does not play what it fetches.
func (s PipelineState) Terminal(fetchOnly bool) bool {
	switch s {
	case FetchFailed, PlayFailed, Played:
		return true
	case Fetched:
		return fetchOnly
	default:
		return false
	}
}

// Download is the outcome of one preview fetch.
type Download struct {
	Body     []byte
	Attempts int // GET requests sent, including the final one
}

// FetchResult is the outcome of one pipeline.
type FetchResult struct {
	Track    TrackDescriptor
	State    PipelineState // final state reached
	Attempts int           // GET requests sent for the preview
	Bytes    int           // payload size when fetched
	Err      error
	Duration time.Duration
}

// TrackName returns the name of the track this result belongs to.
func (r FetchResult) TrackName() string {
	return r.Track.Name
}

// Success reports whether the pipeline finished without error.
func (r FetchResult) Success() bool {
	return r.Err == nil
}

// Kind returns the error kind, or "" on success.
func (r FetchResult) Kind() string {
	return ErrorKind(r.Err)
}

// ErrorKind maps an error to the name of its kind in the error taxonomy.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrQuery):
		return "query"
	case errors.Is(err, shared.ErrTerminalFetch):
		return "terminal_fetch"
	case errors.Is(err, shared.ErrTransientFetch):
		return "transient_fetch"
	case errors.Is(err, shared.ErrDecode):
		return "decode"
	case errors.Is(err, shared.ErrDevice):
		return "device"
	default:
		return "unknown"
	}
}

// Tally counts successful and failed results.
func Tally(results []FetchResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Success() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
