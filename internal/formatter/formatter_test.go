package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/previewer/internal/models"
	"github.com/desertthunder/previewer/internal/services"
	"github.com/desertthunder/previewer/internal/shared"
	"github.com/desertthunder/previewer/internal/tasks"
	th "github.com/desertthunder/previewer/internal/testing"
)

func sampleResult() *tasks.RecommendResult {
	t1 := models.NewTrackDescriptor("t1", "Song One", "https://p.scdn.co/1", "Artist One")
	t2 := models.NewTrackDescriptor("t2", "Song Two", "", "Artist Two")
	t3 := models.NewTrackDescriptor("t3", "Song, Three", "https://p.scdn.co/3", "A", "B")

	return &tasks.RecommendResult{
		RunID:  "run-1",
		Query:  "lofi",
		Tracks: []models.TrackDescriptor{t1, t2, t3},
		Results: []models.FetchResult{
			{Track: t3, State: models.FetchFailed, Err: &services.HTTPError{Status: 404}, Attempts: 1, Duration: 12 * time.Millisecond},
			{Track: t1, State: models.Played, Attempts: 3, Bytes: 2048, Duration: 1500 * time.Millisecond},
		},
		Succeeded: 1,
		Failed:    1,
		Skipped:   1,
		Elapsed:   1600 * time.Millisecond,
	}
}

func TestReport(t *testing.T) {
	t.Run("Orders By Search Position", func(t *testing.T) {
		report := NewReport(sampleResult())
		if len(report.Results) != 2 {
			t.Fatalf("expected 2 records, got %d", len(report.Results))
		}
		if report.Results[0].Track != "Song One" || report.Results[1].Track != "Song, Three" {
			t.Errorf("unexpected order: %+v", report.Results)
		}
		if report.Found != 3 || report.Skipped != 1 || report.ElapsedMS != 1600 {
			t.Errorf("unexpected summary: %+v", report)
		}
	})

	t.Run("Records Errors", func(t *testing.T) {
		rec := NewReport(sampleResult()).Results[1]
		if rec.State != "fetch_failed" || rec.Kind != "terminal_fetch" {
			t.Errorf("unexpected state/kind: %s %s", rec.State, rec.Kind)
		}
		if rec.Attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", rec.Attempts)
		}
		if !strings.Contains(rec.Error, "404") {
			t.Errorf("expected error text, got %q", rec.Error)
		}
		if rec.Artists != "A, B" {
			t.Errorf("expected joined artists, got %q", rec.Artists)
		}
	})

	t.Run("Unknown Tracks Last", func(t *testing.T) {
		known := models.NewTrackDescriptor("k", "Known", "https://p/k")
		stray := models.NewTrackDescriptor("s", "Stray", "https://p/s")
		ordered := OrderResults(
			[]models.TrackDescriptor{known},
			[]models.FetchResult{{Track: stray}, {Track: known}},
		)
		if ordered[0].Track.ID != "k" || ordered[1].Track.ID != "s" {
			t.Errorf("unexpected order: %v, %v", ordered[0].Track.ID, ordered[1].Track.ID)
		}
	})
}

func TestWrite(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatText, sampleResult()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := buf.String()
		for _, want := range []string{"Song One", "played", "fetch_failed", `"lofi": 3 found, 1 played, 1 failed, 1 skipped in 1.6s`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatJSON, sampleResult()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var report Report
		if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
			t.Fatalf("expected valid JSON, got %v", err)
		}
		if report.RunID != "run-1" || report.Succeeded != 1 || len(report.Results) != 2 {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatCSV, sampleResult()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		rows, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("expected valid CSV, got %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(rows))
		}
		if rows[0][0] != "ID" || rows[2][1] != "Song, Three" {
			t.Errorf("unexpected rows: %v", rows)
		}
		if rows[1][5] != "3" || rows[1][6] != "2048" || rows[1][7] != "1500" {
			t.Errorf("unexpected attempts/bytes/duration: %v", rows[1])
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		err := Write(&bytes.Buffer{}, "yaml", sampleResult())
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		if err := Write(&th.FWriter{}, FormatJSON, sampleResult()); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestTracks(t *testing.T) {
	tracks := sampleResult().Tracks

	t.Run("Table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteTracksTable(&buf, tracks); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Song Two") || !strings.Contains(out, "3 tracks, 2 with previews") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := TracksToJSON(tracks)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var decoded []models.TrackDescriptor
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("expected valid JSON, got %v", err)
		}
		if len(decoded) != 3 || decoded[1].PreviewURL != nil {
			t.Errorf("unexpected tracks: %+v", decoded)
		}
	})

	t.Run("JSON Empty", func(t *testing.T) {
		data, err := TracksToJSON(nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("FormatElapsed", func(t *testing.T) {
		tests := []struct {
			in   time.Duration
			want string
		}{
			{0, "0s"},
			{340 * time.Millisecond, "340ms"},
			{1234 * time.Millisecond, "1.2s"},
			{61 * time.Second, "1m1s"},
		}
		for _, tt := range tests {
			if got := FormatElapsed(tt.in); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("Truncate", func(t *testing.T) {
		tests := []struct {
			in   string
			n    int
			want string
		}{
			{"short", 10, "short"},
			{"exactly ten", 11, "exactly ten"},
			{"a longer error message", 10, "a longe..."},
			{"abcdef", 3, "abc"},
		}
		for _, tt := range tests {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		}
	})
}
