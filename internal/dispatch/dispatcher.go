package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/dshills/quarry/internal/config"
	"github.com/dshills/quarry/internal/hook"
	"github.com/dshills/quarry/internal/plugin"
	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

// Logger is the narrow logging surface the dispatcher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dispatcher turns one CLI invocation into a process exit code.
type Dispatcher struct {
	registry *task.Registry
	hooks    *hook.Registry
	plugins  *plugin.Manager
	cfg      *config.Config
	log      Logger

	errOut      io.Writer
	loadProject func() (*project.Context, error)
	shutdowns   []func()

	// compileMu guards the scoped compile-output path established for
	// the duration of one task invocation.
	compileMu   sync.RWMutex
	compilePath string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithErrOut redirects diagnostic output, which defaults to os.Stderr.
func WithErrOut(w io.Writer) Option {
	return func(d *Dispatcher) { d.errOut = w }
}

// WithProjectLoader replaces the descriptor loader, used by tests to
// supply a fixed context or a forced failure.
func WithProjectLoader(load func() (*project.Context, error)) Option {
	return func(d *Dispatcher) { d.loadProject = load }
}

// WithShutdown appends a cleanup function run after the task completes.
// Cleanup is best-effort: panics are swallowed and the exit code already
// determined for the invocation is never changed.
func WithShutdown(fn func()) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.shutdowns = append(d.shutdowns, fn)
		}
	}
}

// New creates a dispatcher over the given registries and configuration.
func New(registry *task.Registry, hooks *hook.Registry, plugins *plugin.Manager, cfg *config.Config, log Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		hooks:       hooks,
		plugins:     plugins,
		cfg:         cfg,
		log:         log,
		errOut:      os.Stderr,
		loadProject: project.LoadDefault,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CompilePath returns the compile-output path scoped to the running
// invocation, or "" outside one.
func (d *Dispatcher) CompilePath() string {
	d.compileMu.RLock()
	defer d.compileMu.RUnlock()
	return d.compilePath
}

func (d *Dispatcher) setCompilePath(path string) {
	d.compileMu.Lock()
	d.compilePath = path
	d.compileMu.Unlock()
}

// Run executes one command and returns the process exit code. Errors are
// reported to the diagnostic writer; Run itself never panics.
func (d *Dispatcher) Run(ctx context.Context, command string, args []string) int {
	code := d.dispatch(ctx, command, args)
	d.shutdown()
	return code
}

func (d *Dispatcher) dispatch(ctx context.Context, command string, args []string) int {
	entry, err := d.registry.Resolve(command)
	if err != nil {
		var notFound *task.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(d.errOut, "quarry: %v (try \"quarry help\")\n", err)
		} else {
			fmt.Fprintf(d.errOut, "quarry: %v\n", err)
		}
		return 1
	}

	var proj *project.Context
	if task.RequiresProject(entry) {
		proj, err = d.loadProject()
		if err != nil {
			fmt.Fprintf(d.errOut, "quarry: %v\n", err)
			return 1
		}
	}

	if proj != nil && len(proj.Hooks()) > 0 {
		if err := d.plugins.ActivateHooks(ctx, proj.Hooks()); err != nil {
			if d.cfg.HookPolicy == config.HookPolicyFail {
				fmt.Fprintf(d.errOut, "quarry: %v\n", err)
				return 1
			}
			d.log.Warn("continuing without failed hook: %v", err)
		}
	}

	if proj != nil {
		d.setCompilePath(proj.CompilePath())
	}
	defer d.setCompilePath("")

	run := d.hooks.Compose(entry.Name, entry.Run)
	code, err := d.invoke(run, proj, args)
	if err != nil {
		fmt.Fprintf(d.errOut, "quarry: %s: %v\n", entry.Name, err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

// invoke runs the composed task, converting a panic into a reported
// failure instead of crashing the host.
func (d *Dispatcher) invoke(run task.Func, proj *project.Context, args []string) (code int, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("task panic: %v\n%s", r, debug.Stack())
			code = 1
			err = fmt.Errorf("unexpected failure: %v (args %v)", r, args)
		}
	}()
	return run(proj, args)
}

// shutdown runs the registered cleanup functions. Each runs to
// completion even if another panics.
func (d *Dispatcher) shutdown() {
	for _, fn := range d.shutdowns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Warn("shutdown step panicked: %v", r)
				}
			}()
			fn()
		}()
	}
}
