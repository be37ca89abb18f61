package tasks

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/previewer/internal/audio"
	"github.com/desertthunder/previewer/internal/models"
	"github.com/desertthunder/previewer/internal/services"
	"github.com/desertthunder/previewer/internal/shared"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of pipelines allowed in flight when none is configured.
const DefaultConcurrency = 5

// SinkFactory returns a fresh playback sink for one pipeline.
type SinkFactory func() audio.Player

// SchedulerOpts configures a [Scheduler].
type SchedulerOpts struct {
	Fetcher   services.Fetcher
	NewSink   SinkFactory // required unless FetchOnly
	Logger    *log.Logger
	FetchOnly bool                  // stop each pipeline after a successful fetch
	Progress  chan<- ProgressUpdate // optional, never blocks
}

// Scheduler runs one fetch-then-play pipeline per playable track, at most N at a time.
type Scheduler struct {
	fetcher   services.Fetcher
	newSink   SinkFactory
	logger    *log.Logger
	fetchOnly bool
	progress  chan<- ProgressUpdate

	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewScheduler creates a scheduler.
func NewScheduler(opts SchedulerOpts) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Scheduler{
		fetcher:   opts.Fetcher,
		newSink:   opts.NewSink,
		logger:    opts.Logger,
		fetchOnly: opts.FetchOnly || opts.NewSink == nil,
		progress:  opts.Progress,
	}
}

// InFlight returns the number of pipelines currently holding a concurrency slot.
func (s *Scheduler) InFlight() int64 { return s.inFlight.Load() }

// Peak returns the highest InFlight value observed.
func (s *Scheduler) Peak() int64 { return s.peak.Load() }

// Run executes a pipeline for every playable descriptor and returns one result per pipeline,
// in completion order. Descriptors without a preview URL are skipped.
//
// A limit below 1 is treated as 1. A failing pipeline never cancels its siblings.
func (s *Scheduler) Run(ctx context.Context, descriptors []models.TrackDescriptor, limit int) []models.FetchResult {
	return s.run(ctx, s.logger, descriptors, limit)
}

func (s *Scheduler) run(ctx context.Context, logger *log.Logger, descriptors []models.TrackDescriptor, limit int) []models.FetchResult {
	if limit < 1 {
		limit = 1
	}

	playable := models.Playable(descriptors)
	total := len(playable)
	if skipped := len(descriptors) - total; skipped > 0 {
		sendProgress(s.progress, skipUpdate(total, skipped))
	}

	budget := semaphore.NewWeighted(int64(limit))
	results := make(chan models.FetchResult, total)

	var wg sync.WaitGroup
	for i, d := range playable {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.pipeline(ctx, budget, logger, i+1, total, d)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]models.FetchResult, 0, total)
	for r := range results {
		out = append(out, r)
		sendProgress(s.progress, resultUpdate(len(out), total, r))
	}
	return out
}

// pipeline drives one track through Pending → Fetching → Fetched → Playing → Played,
// stopping at the first failure.
func (s *Scheduler) pipeline(
	ctx context.Context,
	budget *semaphore.Weighted,
	logger *log.Logger,
	step, total int,
	d models.TrackDescriptor,
) models.FetchResult {
	logger = logger.With("track", d.Name, "url", d.URL())
	ctx = log.WithContext(ctx, logger)
	res := models.FetchResult{Track: d, State: models.Pending}

	if err := budget.Acquire(ctx, 1); err != nil {
		res.State = models.FetchFailed
		res.Err = err
		logger.Error("pipeline not started", "error", err)
		return res
	}
	defer budget.Release(1)

	s.enter()
	defer s.leave()

	start := time.Now()

	res.State = models.Fetching
	sendProgress(s.progress, fetchUpdate(step, total, d))

	dl, err := s.fetcher.Fetch(ctx, d.URL())
	res.Attempts = dl.Attempts
	if err != nil {
		res.State = models.FetchFailed
		res.Err = err
		logger.Error("failed to fetch preview", "kind", models.ErrorKind(err), "attempts", res.Attempts, "error", err)
		return s.finish(logger, &res, start)
	}
	res.State = models.Fetched
	res.Bytes = len(dl.Body)

	if s.fetchOnly {
		logger.Info("fetched preview", "bytes", res.Bytes, "attempts", res.Attempts)
		return s.finish(logger, &res, start)
	}

	res.State = models.Playing
	sendProgress(s.progress, playUpdate(step, total, d))
	logger.Info("playing track", "bytes", res.Bytes, "attempts", res.Attempts)

	if err := s.newSink().Play(ctx, dl.Body); err != nil {
		res.State = models.PlayFailed
		res.Err = err
		logger.Error("failed to play track", "kind", models.ErrorKind(err), "error", err)
		return s.finish(logger, &res, start)
	}

	res.State = models.Played
	logger.Info("played track")
	return s.finish(logger, &res, start)
}

func (s *Scheduler) finish(logger *log.Logger, res *models.FetchResult, start time.Time) models.FetchResult {
	res.Duration = time.Since(start)
	if !res.State.Terminal(s.fetchOnly) {
		logger.Warn("pipeline stopped in a non-terminal state", "state", res.State)
	}
	return *res
}

func (s *Scheduler) enter() {
	n := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (s *Scheduler) leave() {
	s.inFlight.Add(-1)
}
