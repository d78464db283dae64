// Package app assembles the tool: configuration, logging, plugin
// loading, task registration, and the dispatcher, in dependency order.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dshills/quarry/internal/config"
	"github.com/dshills/quarry/internal/dispatch"
	"github.com/dshills/quarry/internal/eval"
	"github.com/dshills/quarry/internal/hook"
	"github.com/dshills/quarry/internal/plugin"
	"github.com/dshills/quarry/internal/process"
	"github.com/dshills/quarry/internal/task"
	"github.com/dshills/quarry/internal/task/builtin"
)

// Application owns the wired components for one invocation.
type Application struct {
	cfg        *config.Config
	logger     *Logger
	hooks      *hook.Registry
	plugins    *plugin.Manager
	registry   *task.Registry
	engine     *eval.Engine
	supervisor *process.Supervisor
	dispatcher *dispatch.Dispatcher
}

// Options configures application construction.
type Options struct {
	// ConfigPath overrides the config file location. Empty means the
	// default location.
	ConfigPath string

	// Version is the tool version string baked in at build time.
	Version string

	// Out receives task output. Defaults to os.Stdout.
	Out io.Writer

	// ErrOut receives diagnostics and logs. Defaults to os.Stderr.
	ErrOut io.Writer
}

// New builds a fully wired application.
func New(opts Options) (*Application, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}

	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := NewLogger(LoggerConfig{
		Level:  ParseLogLevel(cfg.LogLevel),
		Output: opts.ErrOut,
		Prefix: "quarry",
	})

	hooks := hook.NewRegistry()
	loader := plugin.NewLoader(cfg.PluginPaths...)
	plugins := plugin.NewManager(loader, hooks)

	registry := task.NewRegistry()
	registry.SetProvider(plugins)

	engine := eval.NewEngine(
		eval.WithTimeout(cfg.EvalTimeout),
		eval.WithErrorWriter(opts.ErrOut),
	)
	supervisor := process.NewSupervisor()

	if err := builtin.Register(&builtin.Services{
		Registry:   registry,
		Engine:     engine,
		Supervisor: supervisor,
		Version:    opts.Version,
		Out:        opts.Out,
	}); err != nil {
		return nil, fmt.Errorf("registering builtin tasks: %w", err)
	}

	app := &Application{
		cfg:        cfg,
		logger:     logger,
		hooks:      hooks,
		plugins:    plugins,
		registry:   registry,
		engine:     engine,
		supervisor: supervisor,
	}

	app.dispatcher = dispatch.New(registry, hooks, plugins, cfg, logger,
		dispatch.WithErrOut(opts.ErrOut),
		dispatch.WithShutdown(func() { plugins.Shutdown(context.Background()) }),
		dispatch.WithShutdown(engine.Shutdown),
		dispatch.WithShutdown(func() { supervisor.Shutdown(cfg.ShutdownTimeout) }),
	)

	return app, nil
}

// Logger returns the application logger.
func (a *Application) Logger() *Logger { return a.logger }

// Config returns the resolved configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Run dispatches one command and returns the process exit code.
func (a *Application) Run(ctx context.Context, command string, args []string) int {
	a.logger.Debug("dispatching %q with %d args", command, len(args))
	return a.dispatcher.Run(ctx, command, args)
}

// Shutdown releases plugin states, live evaluations, and subprocesses.
// Safe to call more than once; the dispatcher performs the same cleanup
// after a normal invocation.
func (a *Application) Shutdown() {
	a.plugins.Shutdown(context.Background())
	a.engine.Shutdown()
	a.supervisor.Shutdown(a.cfg.ShutdownTimeout)
}
