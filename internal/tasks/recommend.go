package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/previewer/internal/models"
	"github.com/desertthunder/previewer/internal/services"
	"github.com/desertthunder/previewer/internal/shared"
)

// QueryError is returned when the search for a query fails. No playback happens.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("search for %q failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() []error {
	return []error{shared.ErrQuery, e.Err}
}

// RecommendResult contains everything produced by one recommendation run.
type RecommendResult struct {
	RunID     string                   `json:"run_id"`
	Query     string                   `json:"query"`
	Tracks    []models.TrackDescriptor `json:"tracks"`  // search results, in API order
	Results   []models.FetchResult     `json:"-"`       // one per playable track, completion order
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Skipped   int                      `json:"skipped"` // tracks without a preview URL
	Elapsed   time.Duration            `json:"elapsed"`
}

// RecommendationService searches for a query and plays the previews of every match.
type RecommendationService struct {
	searcher  services.Searcher
	scheduler *Scheduler
	logger    *log.Logger
	progress  chan<- ProgressUpdate
}

// NewRecommendationService creates the service. The scheduler's progress channel also receives the search phase.
func NewRecommendationService(searcher services.Searcher, scheduler *Scheduler, logger *log.Logger) *RecommendationService {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &RecommendationService{
		searcher:  searcher,
		scheduler: scheduler,
		logger:    logger,
		progress:  scheduler.progress,
	}
}

// Recommend searches for query and runs a pipeline for each playable track with at most
// limit in flight. A search failure returns [*QueryError] before any fetch is attempted;
// per-track failures are reported in the result, never as an error.
func (r *RecommendationService) Recommend(ctx context.Context, query string, limit int) (*RecommendResult, error) {
	runID := shared.GenerateID()
	logger := shared.WithLogger(r.logger, "run_id", runID)
	start := time.Now()

	sendProgress(r.progress, searchUpdate(query))
	logger.Info("searching", "query", query, "provider", r.searcher.Name())

	tracks, err := r.searcher.Search(ctx, query)
	if err != nil {
		logger.Error("search failed", "query", query, "error", err)
		return nil, &QueryError{Query: query, Err: err}
	}

	playable := len(models.Playable(tracks))
	result := &RecommendResult{
		RunID:   runID,
		Query:   query,
		Tracks:  tracks,
		Skipped: len(tracks) - playable,
	}

	logger.Info("found tracks", "total", len(tracks), "playable", playable, "concurrency", limit)

	result.Results = r.scheduler.run(ctx, logger, tracks, limit)
	result.Succeeded, result.Failed = models.Tally(result.Results)
	result.Elapsed = time.Since(start)

	logger.Info("run complete",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}
