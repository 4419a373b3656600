package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/ctxlog"
	"github.com/vk/protoswift/internal/hcl_adapter"
	"github.com/vk/protoswift/internal/spawn"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader
	runner spawn.Runner
}

// Option customizes an App.
type Option func(*App)

// WithLoader replaces the HCL build-file loader.
func WithLoader(l config.Loader) Option {
	return func(a *App) { a.loader = l }
}

// WithRunner replaces the subprocess runner used by Build.
func WithRunner(r spawn.Runner) Option {
	return func(a *App) { a.runner = r }
}

// NewApp is the constructor for the main application. Command output goes
// to outW, logs to logW. Build files are not read until a command runs.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: hcl_adapter.NewLoader(cfg.WorkspaceRoot),
		runner: spawn.ExecRunner{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
