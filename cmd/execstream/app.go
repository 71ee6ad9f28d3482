// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/execstream/internal/config"
	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/execout"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reaches configuration and engines through it.
	App struct {
		Config  ConfigProvider
		Engines EngineFactory
		stdout  io.Writer
		stderr  io.Writer

		// settled by the first configuration load of an invocation
		verbose bool
		paint   painter
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Engines EngineFactory
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// EngineFactory connects to the engine selected by cfg. Engines that hold
	// a connection implement io.Closer.
	EngineFactory func(ctx context.Context, cfg *config.Config, logger *log.Logger) (container.Engine, error)
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Engines == nil {
		deps.Engines = connectEngine
	}

	return &App{
		Config:  deps.Config,
		Engines: deps.Engines,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		paint:   painter{color: true},
	}
}

// connectEngine is the production EngineFactory.
func connectEngine(ctx context.Context, cfg *config.Config, logger *log.Logger) (container.Engine, error) {
	if cfg.Engine == config.EngineLocal {
		return container.NewLocalEngine(container.WithLocalLogger(logger)), nil
	}
	return container.NewEngine(ctx, container.EngineType(cfg.Engine), cfg.Host)
}

// logger returns a stderr logger with the configured level.
func (a *App) logger(cfg *config.Config, prefix string) *log.Logger {
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: prefix,
		Level:  cfg.EffectiveLogLevel(),
	})
}

// openEngine connects to the configured engine. The returned release function
// closes the engine connection, if it has one.
func (a *App) openEngine(ctx context.Context, cfg *config.Config) (container.Engine, func(), error) {
	engine, err := a.Engines(ctx, cfg, a.logger(cfg, "engine"))
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if c, ok := engine.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return engine, release, nil
}

// newReader builds an exec output reader tuned by cfg.
func (a *App) newReader(cfg *config.Config, engine container.Engine) *execout.Reader {
	return execout.NewReader(engine,
		execout.WithLogger(a.logger(cfg, "exec")),
		execout.WithExitPolling(cfg.Exec.PollAttempts, cfg.Exec.PollInterval),
		execout.WithMaxFrameSize(cfg.Exec.MaxFrameSize),
	)
}
