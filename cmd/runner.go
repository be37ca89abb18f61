package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/previewer/internal/audio"
	"github.com/desertthunder/previewer/internal/retry"
	"github.com/desertthunder/previewer/internal/services"
	"github.com/desertthunder/previewer/internal/shared"
	"github.com/desertthunder/previewer/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil are built from the configuration on first use.
type Runner struct {
	config     *shared.Config
	searcher   services.Searcher
	fetcher    services.Fetcher
	newSink    tasks.SinkFactory
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer // reports and command output
	status     io.Writer // progress lines
	getenv     func(string) string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Searcher   services.Searcher
	Fetcher    services.Fetcher
	NewSink    tasks.SinkFactory
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Status     io.Writer
	Getenv     func(string) string
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:     opts.Config,
		searcher:   opts.Searcher,
		fetcher:    opts.Fetcher,
		newSink:    opts.NewSink,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		status:     opts.Status,
		getenv:     opts.Getenv,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		recommendCommand, searchCommand, setupCommand, authCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the injected config, or reads --config (falling back to defaults when the
// file does not exist), applies environment overrides and validates it.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.logger.Debug("loaded config", "path", path)
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	default:
		return nil, err
	}

	config.ApplyEnv(r.getenv)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r.config = config
	return config, nil
}

// configureLogger sets the level from config, or debug with --verbose.
func (r *Runner) configureLogger(cmd *cli.Command, config *shared.Config) error {
	level, err := shared.ParseLogLevel(config.Log.Level)
	if err != nil {
		return err
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return nil
}

func (r *Runner) client(config *shared.Config) *http.Client {
	if r.httpClient != nil {
		return r.httpClient
	}
	r.httpClient = &http.Client{Timeout: config.Fetch.Timeout.Duration}
	return r.httpClient
}

func (r *Runner) searcherFor(config *shared.Config) (services.Searcher, error) {
	if r.searcher != nil {
		return r.searcher, nil
	}

	creds := config.Credentials.Spotify
	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		BaseURL:      config.Spotify.BaseURL,
		TokenURL:     config.Spotify.TokenURL,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Token:        creds.Token,
		Market:       config.Spotify.Market,
		Limit:        config.Spotify.SearchLimit,
		HTTPClient:   r.client(config),
		Logger:       r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	r.searcher = svc
	return svc, nil
}

func (r *Runner) fetcherFor(config *shared.Config) services.Fetcher {
	if r.fetcher != nil {
		return r.fetcher
	}

	policy := retry.New(config.Fetch.MaxAttempts, config.Fetch.BaseDelay.Duration)
	policy.Max = config.Fetch.MaxDelay.Duration
	policy.Logger = r.logger

	r.fetcher = services.NewPreviewFetcher(services.FetcherOpts{
		HTTPClient: r.client(config),
		Policy:     policy,
		RateLimit:  config.Fetch.RateLimit,
		Logger:     r.logger,
		UserAgent:  config.Fetch.UserAgent,
		MaxBytes:   config.Fetch.MaxBytes,
	})
	return r.fetcher
}

// sinkFactory returns the sink factory for a run and a func releasing the output device.
// With noPlay the factory is nil and pipelines stop after fetching.
func (r *Runner) sinkFactory(config *shared.Config, mute, noPlay bool) (tasks.SinkFactory, func()) {
	if noPlay {
		return nil, func() {}
	}
	if r.newSink != nil {
		return r.newSink, func() {}
	}

	var device *audio.Device
	if mute || config.Playback.Muted {
		device = audio.NewMutedDevice(r.logger)
	} else {
		device = audio.NewDevice(r.logger)
	}
	return func() audio.Player { return device.NewSink() }, func() { device.Close() }
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
