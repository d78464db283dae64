package eval

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	qlua "github.com/dshills/quarry/internal/lua"
	"github.com/dshills/quarry/internal/project"
	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 5 * time.Minute

// Engine executes code in isolated, dependency-scoped environments.
// It tracks live evaluation states so Shutdown can release them.
type Engine struct {
	mu     sync.Mutex
	states map[string]*qlua.State
	closed bool

	timeout   time.Duration
	errWriter io.Writer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTimeout sets the per-evaluation timeout.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithErrorWriter sets where evaluation diagnostics (the isolated
// environment's "stderr") are written. Defaults to os.Stderr.
func WithErrorWriter(w io.Writer) EngineOption {
	return func(e *Engine) {
		e.errWriter = w
	}
}

// NewEngine creates an eval engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		states:    make(map[string]*qlua.State),
		timeout:   DefaultTimeout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvalInProject evaluates mainForm inside an environment scoped to the
// context's declared dependencies and returns the environment's integer
// status. initForm, when non-empty, is evaluated first in the same
// environment so that forward references in mainForm resolve.
//
// The call is synchronous and blocking. The returned error is non-nil
// only for setup failures (*SetupError, ErrNilContext, ErrEngineClosed);
// failures of the evaluated code itself surface as a nonzero status.
func (e *Engine) EvalInProject(proj *project.Context, mainForm, initForm string) (int, error) {
	if proj == nil {
		return -1, &SetupError{Err: ErrNilContext}
	}

	paths, err := modulePaths(proj)
	if err != nil {
		return -1, err
	}

	state, err := qlua.NewState(
		qlua.WithModulePaths(paths...),
		qlua.WithSystemLibs(),
		qlua.WithExecutionTimeout(e.timeout),
	)
	if err != nil {
		return -1, &SetupError{Err: err}
	}

	id := uuid.New().String()
	if err := e.track(id, state); err != nil {
		state.Close()
		return -1, err
	}
	defer e.release(id)

	installProjectTable(state, proj)

	if initForm != "" {
		if code, done := e.evalForm(state, initForm, false); done {
			return code, nil
		}
	}

	code, _ := e.evalForm(state, mainForm, true)
	return code, nil
}

// evalForm evaluates one form. done reports that the evaluation reached a
// final status: always true for the main form, and true for an init form
// only when it failed or called exit.
func (e *Engine) evalForm(state *qlua.State, form string, isMain bool) (code int, done bool) {
	results, err := state.EvalString(form)
	if err != nil {
		if code, exited := state.ExitStatus(); exited {
			return code, true
		}
		fmt.Fprintf(e.errWriter, "eval: %v\n", err)
		return 1, true
	}

	if !isMain {
		return 0, false
	}

	// A numeric value returned by the main form is the exit status; any
	// other (or no) value is success.
	if len(results) > 0 {
		if n, ok := results[0].(lua.LNumber); ok {
			return int(n), true
		}
	}
	return 0, true
}

// installProjectTable exposes a read-only snapshot of the context inside
// the isolated environment.
func installProjectTable(state *qlua.State, proj *project.Context) {
	L := state.LuaState()
	bridge := qlua.NewBridge(L)

	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(proj.Name()))
	L.SetField(tbl, "group", lua.LString(proj.Group()))
	L.SetField(tbl, "version", lua.LString(proj.Version()))
	L.SetField(tbl, "root", lua.LString(proj.Root()))
	L.SetField(tbl, "compile_path", lua.LString(proj.CompilePath()))
	L.SetField(tbl, "dependencies", bridge.ToLuaValue(proj.Dependencies()))
	L.SetGlobal("project", tbl)
}

// track registers a live state under the session id.
func (e *Engine) track(id string, state *qlua.State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return &SetupError{Err: ErrEngineClosed}
	}
	e.states[id] = state
	return nil
}

// release closes and forgets a state.
func (e *Engine) release(id string) {
	e.mu.Lock()
	state := e.states[id]
	delete(e.states, id)
	e.mu.Unlock()

	if state != nil {
		_ = state.Close()
	}
}

// Live returns the number of currently tracked evaluation states.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.states)
}

// Shutdown closes all live states. Best-effort: never panics, callable
// more than once.
func (e *Engine) Shutdown() {
	defer func() {
		_ = recover()
	}()

	e.mu.Lock()
	states := make([]*qlua.State, 0, len(e.states))
	for _, s := range e.states {
		states = append(states, s)
	}
	e.states = make(map[string]*qlua.State)
	e.closed = true
	e.mu.Unlock()

	for _, s := range states {
		_ = s.Close()
	}
}
