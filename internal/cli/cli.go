// Package cli provides the command-line interface for rulesync.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/rulesync/internal/config"
	"github.com/klauern/rulesync/internal/logging"
	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/registry"
	"github.com/klauern/rulesync/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Exit codes. Zero means nothing is pending; one means a sync is needed
// or a recoverable error occurred; two means the source of truth itself
// is unusable.
const (
	exitOK    = 0
	exitDirty = 1
	exitFatal = 2
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "rulesync",
		Usage:   "Distribute versioned rule files from a source project to its consumers",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColors(cmd)
			return ctx, configureLogging(cmd)
		},
		Commands: []*cli.Command{
			versionCommand(),
			configCommand(),
			registerCommand(),
			unregisterCommand(),
			listCommand(),
			statusCommand(),
			pullCommand(),
			diffCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColors sets up color output based on config and CLI flags.
func configureColors(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		ui.DisableColors()
		return
	}
	mode := "auto"
	if cfg, err := config.Load(); err == nil {
		mode = cfg.Output.Color
	}
	ui.ConfigureColorMode(mode)
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}

// appEnv bundles the loaded configuration, registry and manifest store
// that every command needs.
type appEnv struct {
	cfg      *config.Config
	registry *registry.Registry
	store    *manifest.Store
}

func loadEnv() (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("registry unreadable: %v", err), exitFatal)
	}

	return &appEnv{
		cfg:      cfg,
		registry: reg,
		store:    manifest.NewStore(cfg.Manifest.Path),
	}, nil
}

// projectDirArg resolves the optional path argument at the given index,
// defaulting to the current working directory.
func projectDirArg(cmd *cli.Command, index int) (string, error) {
	if arg := cmd.Args().Get(index); arg != "" {
		return arg, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return dir, nil
}
