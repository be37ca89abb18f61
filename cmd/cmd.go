// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/previewer/internal/formatter"
	"github.com/desertthunder/previewer/internal/tasks"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// rootCommand builds the application. A bare query runs recommend.
func rootCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("PREVIEWER_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging and per-phase progress",
		},
	}

	return &cli.Command{
		Name:      "previewer",
		Usage:     "Search Spotify and play the previews of every matching track",
		UsageText: "previewer [global options] <query>\npreviewer [global options] command [command options]",
		Version:   version,
		Flags:     append(flags, recommendFlags()...),
		Commands:  r.register(),
		Writer:    r.output,
		ErrWriter: r.status,
		Action:    r.Root,
	}
}

func recommendFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"n"},
			Usage:   "Maximum number of previews fetched and played at once",
			Value:   tasks.DefaultConcurrency,
		},
		&cli.BoolFlag{
			Name:  "mute",
			Usage: "Decode previews without sound output",
		},
		&cli.BoolFlag{
			Name:  "no-play",
			Usage: "Download previews only",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Report format: text, json, or csv",
			Value:   formatter.FormatText,
		},
	}
}

// recommendCommand searches for tracks and plays their previews
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"play", "rec"},
		Usage:     "Search for a query and play every matching preview",
		ArgsUsage: "<query>",
		Flags:     recommendFlags(),
		Action:    r.Recommend,
	}
}

// searchCommand lists matching tracks without playing them
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "List tracks matching a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// setupCommand handles setup operations
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Check that a Spotify token can be obtained",
				Action: r.AuthStatus,
			},
		},
	}
}
