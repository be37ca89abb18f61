// package formatter renders search results and run reports as a table, JSON, or CSV
package formatter

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/previewer/internal/models"
	"github.com/desertthunder/previewer/internal/shared"
	"github.com/desertthunder/previewer/internal/tasks"
	"github.com/olekukonko/tablewriter"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ResultRecord is the flattened, serialisable form of a [models.FetchResult].
type ResultRecord struct {
	ID         string `json:"id,omitempty"`
	Track      string `json:"track"`
	Artists    string `json:"artists,omitempty"`
	PreviewURL string `json:"preview_url"`
	State      string `json:"state"`
	Kind       string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	Bytes      int    `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
}

// Report is the serialisable form of a [tasks.RecommendResult].
type Report struct {
	RunID     string         `json:"run_id"`
	Query     string         `json:"query"`
	Found     int            `json:"found"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Results   []ResultRecord `json:"results"`
}

// NewReport flattens a run result. Results are listed in search order rather than completion order.
func NewReport(r *tasks.RecommendResult) Report {
	return Report{
		RunID:     r.RunID,
		Query:     r.Query,
		Found:     len(r.Tracks),
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
		ElapsedMS: r.Elapsed.Milliseconds(),
		Results:   Records(OrderResults(r.Tracks, r.Results)),
	}
}

// OrderResults sorts results by the position of their track in tracks. Unknown tracks go last.
func OrderResults(tracks []models.TrackDescriptor, results []models.FetchResult) []models.FetchResult {
	index := make(map[string]int, len(tracks))
	for i, t := range tracks {
		if _, ok := index[t.Key()]; !ok {
			index[t.Key()] = i
		}
	}

	pos := func(r models.FetchResult) int {
		if i, ok := index[r.Track.Key()]; ok {
			return i
		}
		return len(tracks)
	}

	ordered := slices.Clone(results)
	slices.SortStableFunc(ordered, func(a, b models.FetchResult) int {
		return cmp.Compare(pos(a), pos(b))
	})
	return ordered
}

// Records converts results to [ResultRecord]s, preserving order.
func Records(results []models.FetchResult) []ResultRecord {
	records := make([]ResultRecord, 0, len(results))
	for _, r := range results {
		rec := ResultRecord{
			ID:         r.Track.ID,
			Track:      r.Track.Name,
			Artists:    strings.Join(r.Track.Artists, ", "),
			PreviewURL: r.Track.URL(),
			State:      r.State.String(),
			Kind:       r.Kind(),
			Attempts:   r.Attempts,
			Bytes:      r.Bytes,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		records = append(records, rec)
	}
	return records
}

// Write renders a run result to w in the given format.
func Write(w io.Writer, format string, r *tasks.RecommendResult) error {
	switch format {
	case FormatText, "":
		return WriteResultsTable(w, r)
	case FormatJSON:
		data, err := ResultsToJSON(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatCSV:
		data, err := ResultsToCSV(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: unknown format %q (expected text, json, or csv)", shared.ErrInvalidFlag, format)
	}
}

// ResultsToJSON marshals the run report with indentation.
func ResultsToJSON(r *tasks.RecommendResult) ([]byte, error) {
	data, err := shared.MarshalJSON(NewReport(r), true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// ResultsToCSV converts a run result to CSV format with columns: ID, Track, Artists, State, Kind, Attempts, Bytes, Duration, Error
func ResultsToCSV(r *tasks.RecommendResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Track", "Artists", "State", "Kind", "Attempts", "Bytes", "Duration", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range NewReport(r).Results {
		record := []string{
			rec.ID,
			rec.Track,
			rec.Artists,
			rec.State,
			rec.Kind,
			strconv.Itoa(rec.Attempts),
			strconv.Itoa(rec.Bytes),
			strconv.FormatInt(rec.DurationMS, 10),
			rec.Error,
		}
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

// WriteResultsTable renders one row per pipeline followed by a summary line.
func WriteResultsTable(w io.Writer, r *tasks.RecommendResult) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Track", "Artist", "State", "Tries", "Time", "Error"})
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	for i, rec := range NewReport(r).Results {
		table.Append([]string{
			strconv.Itoa(i + 1),
			rec.Track,
			rec.Artists,
			rec.State,
			strconv.Itoa(rec.Attempts),
			FormatElapsed(time.Duration(rec.DurationMS) * time.Millisecond),
			Truncate(rec.Error, 60),
		})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "%q: %d found, %d played, %d failed, %d skipped in %s\n",
		r.Query, len(r.Tracks), r.Succeeded, r.Failed, r.Skipped, FormatElapsed(r.Elapsed))
	return err
}

// WriteTracksTable renders search results without playing them.
func WriteTracksTable(w io.Writer, tracks []models.TrackDescriptor) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Track", "Artist", "Preview"})
	table.SetAutoWrapText(false)

	for i, t := range tracks {
		preview := "no"
		if t.Playable() {
			preview = "yes"
		}
		table.Append([]string{strconv.Itoa(i + 1), t.Name, strings.Join(t.Artists, ", "), preview})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "%d tracks, %d with previews\n", len(tracks), len(models.Playable(tracks)))
	return err
}

// TracksToJSON marshals search results with indentation.
func TracksToJSON(tracks []models.TrackDescriptor) ([]byte, error) {
	if tracks == nil {
		tracks = []models.TrackDescriptor{}
	}
	data, err := shared.MarshalJSON(tracks, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return data, nil
}

// FormatElapsed renders a duration rounded for display, e.g. "1.2s" or "340ms".
func FormatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
