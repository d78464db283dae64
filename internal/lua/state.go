package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single evaluation (best-effort; enforced
// through gopher-lua's context support, checked between instructions).
const DefaultExecutionTimeout = 30 * time.Second

// State wraps gopher-lua with sandboxing and lifecycle management.
type State struct {
	L *lua.LState

	mu sync.Mutex

	// Configuration
	executionTimeout time.Duration
	modulePaths      []string
	systemLibs       bool

	// Sandbox
	sandbox *Sandbox

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the execution timeout for evaluations.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithModulePaths sets directories require() may resolve modules from.
// Each directory contributes a "<dir>/?.lua" search pattern. States created
// without module paths reject all filesystem module loading.
func WithModulePaths(paths ...string) StateOption {
	return func(s *State) {
		s.modulePaths = append(s.modulePaths, paths...)
	}
}

// WithSystemLibs opens the os and io standard libraries. os.exit is always
// replaced by the sandbox exit trap regardless of this option.
func WithSystemLibs() StateOption {
	return func(s *State) {
		s.systemLibs = true
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
	}

	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L

	openSafeLibraries(L, state.systemLibs)

	state.sandbox = NewSandbox(L, state.modulePaths)
	state.sandbox.Install()

	return state, nil
}

// openSafeLibraries opens the permitted Lua standard libraries.
func openSafeLibraries(L *lua.LState, systemLibs bool) {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	if systemLibs {
		libs = append(libs,
			struct {
				name string
				fn   lua.LGFunction
			}{lua.OsLibName, lua.OpenOs},
			struct {
				name string
				fn   lua.LGFunction
			}{lua.IoLibName, lua.OpenIo},
		)
	}
	// Note: debug is never opened (can bypass the sandbox), and os/io are
	// opened only for dependency-scoped evaluation states.
	for _, lib := range libs {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// DoFile executes a Lua file. The call blocks until completion or error.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	return s.withTimeout(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua chunk, discarding any returned values.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	return s.withTimeout(func() error {
		return s.L.DoString(code)
	})
}

// EvalString executes a Lua chunk and returns the values it returns.
// A chunk that returns nothing yields an empty (non-nil) slice.
func (s *State) EvalString(code string) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	var results []lua.LValue
	err := s.withTimeout(func() error {
		fn, err := s.L.LoadString(code)
		if err != nil {
			return err
		}

		top := s.L.GetTop()
		s.L.Push(fn)
		if err := s.L.PCall(0, lua.MultRet, nil); err != nil {
			return err
		}

		nret := s.L.GetTop() - top
		results = make([]lua.LValue, nret)
		for i := 0; i < nret; i++ {
			results[i] = s.L.Get(top + i + 1)
		}
		s.L.Pop(nret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []lua.LValue{}
	}
	return results, nil
}

// Call calls a global Lua function with the given arguments and returns
// all of its results.
func (s *State) Call(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal == lua.LNil {
		return nil, fmt.Errorf("function %q not found", fn)
	}
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q: %w (got %s)", fn, ErrNotFunction, fnVal.Type())
	}

	return s.callValue(fnVal, args...)
}

// CallValue calls a Lua function value with the given arguments.
func (s *State) CallValue(fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	if fn == nil || fn.Type() != lua.LTFunction {
		return nil, ErrNotFunction
	}

	return s.callValue(fn, args...)
}

// callValue performs the actual protected call. Caller holds the mutex.
func (s *State) callValue(fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	top := s.L.GetTop()

	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	var callErr error
	err := s.withTimeout(func() error {
		callErr = s.L.PCall(len(args), lua.MultRet, nil)
		return callErr
	})
	if err != nil {
		s.L.SetTop(top)
		return nil, err
	}

	nret := s.L.GetTop() - top
	if nret <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(nret)

	return results, nil
}

// withTimeout runs fn with panic recovery and a best-effort deadline.
// Caller holds the mutex.
func (s *State) withTimeout(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if s.executionTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.executionTimeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	return fn()
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// HasGlobalFunction reports whether a global function with the name exists.
func (s *State) HasGlobalFunction(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	v := s.L.GetGlobal(name)
	return v.Type() == lua.LTFunction
}

// RegisterFunc registers a Go function as a global Lua function.
func (s *State) RegisterFunc(name string, fn lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.NewFunction(fn))
}

// RegisterModule registers a named table of Go functions, both as a global
// and as a preloaded module so plugin code may `require` it.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
	s.L.PreloadModule(name, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
	s.sandbox.AllowModule(name)
}

// LuaState returns the underlying gopher-lua state.
//
// WARNING: direct access bypasses the mutex and sandbox. The caller is
// responsible for thread-safety.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// Sandbox returns the sandbox attached to this state.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// ExitStatus reports whether evaluated code called exit(n), and the code.
func (s *State) ExitStatus() (int, bool) {
	return s.sandbox.ExitStatus()
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
