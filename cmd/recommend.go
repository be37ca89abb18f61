package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/previewer/internal/formatter"
	"github.com/desertthunder/previewer/internal/shared"
	"github.com/desertthunder/previewer/internal/tasks"
	"github.com/desertthunder/previewer/internal/ui"
	"github.com/urfave/cli/v3"
)

// Root runs recommend for a bare query and shows help otherwise.
func (r *Runner) Root(ctx context.Context, cmd *cli.Command) error {
	query := queryArg(cmd)
	if query == "" {
		return cli.ShowAppHelp(cmd)
	}
	return r.recommend(ctx, cmd, query)
}

// Recommend searches for the query arguments and plays every matching preview.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	return r.recommend(ctx, cmd, queryArg(cmd))
}

// queryArg joins the positional arguments, so unquoted multi-word queries work.
func queryArg(cmd *cli.Command) string {
	return strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
}

func (r *Runner) recommend(ctx context.Context, cmd *cli.Command, query string) error {
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := r.configureLogger(cmd, config); err != nil {
		return err
	}

	limit, err := concurrency(cmd, config.Playback.Concurrency)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	switch format {
	case formatter.FormatText, formatter.FormatJSON, formatter.FormatCSV:
	default:
		return fmt.Errorf("%w: --format must be text, json, or csv, got %q", shared.ErrInvalidFlag, format)
	}

	searcher, err := r.searcherFor(config)
	if err != nil {
		return err
	}

	noPlay := cmd.Bool("no-play")
	newSink, release := r.sinkFactory(config, cmd.Bool("mute"), noPlay)
	defer release()

	progress := make(chan tasks.ProgressUpdate, 64)
	done := ui.NewReporter(r.status, cmd.Bool("verbose")).Watch(progress)

	scheduler := tasks.NewScheduler(tasks.SchedulerOpts{
		Fetcher:   r.fetcherFor(config),
		NewSink:   newSink,
		Logger:    r.logger,
		FetchOnly: noPlay,
		Progress:  progress,
	})
	svc := tasks.NewRecommendationService(searcher, scheduler, r.logger)

	result, err := svc.Recommend(ctx, query, limit)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	return formatter.Write(r.output, format, result)
}

// concurrency returns --concurrency when set, otherwise the configured value.
func concurrency(cmd *cli.Command, configured int) (int, error) {
	n := configured
	if cmd.IsSet("concurrency") || n < 1 {
		n = int(cmd.Int("concurrency"))
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: --concurrency must be at least 1, got %d", shared.ErrInvalidFlag, n)
	}
	return n, nil
}
