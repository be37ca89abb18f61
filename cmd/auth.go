package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/previewer/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

type authenticator interface {
	Authenticate(ctx context.Context) (*oauth2.Token, error)
}

// AuthStatus checks that the configured credentials yield a token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
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

	auth, ok := searcher.(authenticator)
	if !ok {
		return fmt.Errorf("%w: %s does not support authentication checks", shared.ErrNotImplemented, searcher.Name())
	}

	r.logger.Info("checking auth status", "provider", searcher.Name())
	token, err := auth.Authenticate(ctx)
	if err != nil {
		return err
	}

	method := "static token"
	if config.Credentials.Spotify.HasClientCredentials() {
		method = "client credentials"
	}

	r.writePlain("✓ Authenticated with %s\n", searcher.Name())
	r.writePlain("Method: %s\n", method)
	if token.Expiry.IsZero() {
		return r.writePlain("Expires: never\n")
	}
	return r.writePlain("Expires: in %s\n", time.Until(token.Expiry).Round(time.Second))
}
