package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/previewer/internal/formatter"
	"github.com/desertthunder/previewer/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search lists the tracks matching a query without fetching previews.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := queryArg(cmd)
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

	searcher, err := r.searcherFor(config)
	if err != nil {
		return err
	}

	r.logger.Info("searching", "query", query, "provider", searcher.Name())
	tracks, err := searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrQuery, err)
	}

	if cmd.Bool("json") {
		if len(tracks) == 0 {
			return r.writePlain("[]\n")
		}
		return r.writeJSON(tracks, true)
	}
	return formatter.WriteTracksTable(r.output, tracks)
}
