package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/previewer/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	r.logger.Info("creating config file from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	if _, err := shared.LoadConfig(configPath); err != nil {
		return fmt.Errorf("created config does not parse: %w", err)
	}

	r.writePlain("✓ Config written to %s\n\n", configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'previewer auth status' to check authentication\n")
	return r.writePlain("3. Run 'previewer \"your query\"' to play previews\n")
}
