package plugin

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dshills/quarry/internal/hook"
	qlua "github.com/dshills/quarry/internal/lua"
	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
	lua "github.com/yuin/gopher-lua"
)

// Host manages a single plugin's Lua state and lifecycle.
//
// All plugin execution happens on the dispatcher goroutine: the loading
// phase and later task/hook invocations are sequential, so calls into
// the Lua state are made directly (a wrapper invoking its next callable
// may re-enter the same state, which a per-call lock would deadlock on).
type Host struct {
	mu sync.RWMutex

	// Identity
	name     string
	manifest *Manifest

	// Lua runtime
	state  *qlua.State
	bridge *qlua.Bridge

	// Hook registrations flow into the shared registry.
	hooks *hook.Registry

	pluginState State
	err         error
	activated   bool
}

// NewHost creates a plugin host for the given manifest. Hook
// registrations made by the plugin land in hooks.
func NewHost(manifest *Manifest, hooks *hook.Registry) (*Host, error) {
	if manifest == nil {
		return nil, ErrNilManifest
	}
	return &Host{
		name:        manifest.Name,
		manifest:    manifest,
		hooks:       hooks,
		pluginState: StateUnloaded,
	}, nil
}

// Name returns the plugin name.
func (h *Host) Name() string {
	return h.name
}

// Manifest returns the plugin manifest.
func (h *Host) Manifest() *Manifest {
	return h.manifest
}

// State returns the current plugin lifecycle state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pluginState
}

// Error returns any error recorded by the lifecycle.
func (h *Host) Error() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Load creates the Lua state and runs the plugin's main file. Top-level
// registration calls (quarry.add_hook and friends) run here as load-time
// side effects.
func (h *Host) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pluginState != StateUnloaded {
		return ErrAlreadyLoaded
	}

	mainPath := h.manifest.MainPath()
	if _, err := os.Stat(mainPath); err != nil {
		h.fail(fmt.Errorf("%w: %s", ErrNoEntryPoint, mainPath))
		return h.err
	}

	state, err := qlua.NewState()
	if err != nil {
		h.fail(err)
		return h.err
	}
	h.state = state
	h.bridge = qlua.NewBridge(state.LuaState())

	h.installQuarryModule()

	if err := state.DoFile(mainPath); err != nil {
		state.Close()
		h.state = nil
		h.fail(fmt.Errorf("load plugin %s: %w", h.name, err))
		return h.err
	}

	h.pluginState = StateLoaded
	h.err = nil
	return nil
}

// Activate invokes the plugin's activation routine, if it defines one,
// exactly once. Plugins without an activate() function rely on their
// load-time side effects and become active immediately.
func (h *Host) Activate(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pluginState == StateActive {
		return nil
	}
	if h.pluginState != StateLoaded {
		return ErrNotLoaded
	}

	if !h.activated && h.state.HasGlobalFunction("activate") {
		h.activated = true
		if _, err := h.call(h.state.LuaState().GetGlobal("activate")); err != nil {
			h.fail(fmt.Errorf("activate plugin %s: %w", h.name, err))
			return h.err
		}
	}

	h.pluginState = StateActive
	return nil
}

// Unload closes the Lua state and releases resources.
func (h *Host) Unload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != nil {
		_ = h.state.Close()
		h.state = nil
	}
	h.pluginState = StateUnloaded
	return nil
}

// fail records an error state. Caller holds the mutex.
func (h *Host) fail(err error) {
	h.pluginState = StateError
	h.err = err
}

// HasFunction reports whether the plugin defines the global function.
func (h *Host) HasFunction(name string) bool {
	h.mu.RLock()
	state := h.state
	h.mu.RUnlock()

	return state != nil && state.HasGlobalFunction(name)
}

// TaskFunc bridges a contributed task into a task.Func invoking the
// plugin's same-named global Lua function.
func (h *Host) TaskFunc(contribution TaskContribution) task.Func {
	return func(proj *project.Context, args []string) (int, error) {
		h.mu.RLock()
		state := h.state
		h.mu.RUnlock()

		if state == nil {
			return 1, fmt.Errorf("plugin %s: %w", h.name, ErrNotLoaded)
		}

		fn := state.LuaState().GetGlobal(contribution.Name)
		if fn.Type() != lua.LTFunction {
			return 1, fmt.Errorf("plugin %s has no function %q", h.name, contribution.Name)
		}

		results, err := h.call(fn, h.projectTable(proj), h.bridge.ToLuaValue(args))
		if err != nil {
			return 1, fmt.Errorf("plugin %s task %s: %w", h.name, contribution.Name, err)
		}
		return h.interpretResult(contribution.Name, results)
	}
}

// hookWrapper bridges a Lua wrapper function into a hook.Wrapper. The
// Lua function receives (next, project, args); calling next(args?)
// continues the chain and returns the inner exit code, raising a Lua
// error if an inner layer failed so the wrapper may suppress or rethrow.
func (h *Host) hookWrapper(fn *lua.LFunction) hook.Wrapper {
	return func(next task.Func, proj *project.Context, args []string) (int, error) {
		h.mu.RLock()
		state := h.state
		h.mu.RUnlock()

		if state == nil {
			return 1, fmt.Errorf("plugin %s: %w", h.name, ErrNotLoaded)
		}
		L := state.LuaState()

		nextFn := L.NewFunction(func(L *lua.LState) int {
			forwarded := args
			if tbl, ok := L.Get(1).(*lua.LTable); ok {
				forwarded = h.stringList(tbl)
			}
			code, err := next(proj, forwarded)
			if err != nil {
				L.RaiseError("%v", err)
			}
			L.Push(lua.LNumber(code))
			return 1
		})

		results, err := h.call(fn, nextFn, h.projectTable(proj), h.bridge.ToLuaValue(args))
		if err != nil {
			return 1, fmt.Errorf("plugin %s hook: %w", h.name, err)
		}
		return h.interpretResult("hook", results)
	}
}

// installQuarryModule exposes the quarry API inside the plugin state.
func (h *Host) installQuarryModule() {
	h.state.RegisterModule("quarry", map[string]lua.LGFunction{
		"add_hook": func(L *lua.LState) int {
			target := L.CheckString(1)
			fn := L.CheckFunction(2)
			// Identity is the Lua function value, so registering the
			// same function twice stays a single installation.
			id := fmt.Sprintf("%s:%p", h.name, fn)
			h.hooks.AddNamed(target, id, h.hookWrapper(fn))
			return 0
		},
		"log": func(L *lua.LState) int {
			msg := L.CheckString(1)
			fmt.Fprintf(os.Stderr, "[%s] %s\n", h.name, msg)
			return 0
		},
	})
}

// call invokes a Lua function value with panic recovery. Calls are not
// serialized through the state mutex; see the Host doc comment.
func (h *Host) call(fn lua.LValue, args ...lua.LValue) (results []lua.LValue, err error) {
	L := h.state.LuaState()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	top := L.GetTop()
	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}

	if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
		L.SetTop(top)
		return nil, err
	}

	nret := L.GetTop() - top
	results = make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		results[i] = L.Get(top + i + 1)
	}
	L.Pop(nret)
	return results, nil
}

// interpretResult maps a plugin function's return values to the task
// result convention: a number is the exit code, nil or nothing is
// success, false (optionally followed by a message) and non-empty
// strings are failures.
func (h *Host) interpretResult(what string, results []lua.LValue) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	switch v := results[0].(type) {
	case lua.LNumber:
		return int(v), nil
	case lua.LBool:
		if bool(v) {
			return 0, nil
		}
		if len(results) > 1 {
			if msg, ok := results[1].(lua.LString); ok {
				return 1, fmt.Errorf("plugin %s %s: %s", h.name, what, string(msg))
			}
		}
		return 1, fmt.Errorf("plugin %s %s reported failure", h.name, what)
	case lua.LString:
		if string(v) != "" {
			return 1, fmt.Errorf("plugin %s %s: %s", h.name, what, string(v))
		}
		return 0, nil
	default:
		return 0, nil
	}
}

// projectTable converts a context to its Lua view; nil contexts become
// Lua nil for tasks that run without a project.
func (h *Host) projectTable(proj *project.Context) lua.LValue {
	if proj == nil {
		return lua.LNil
	}

	L := h.state.LuaState()
	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(proj.Name()))
	L.SetField(tbl, "group", lua.LString(proj.Group()))
	L.SetField(tbl, "version", lua.LString(proj.Version()))
	L.SetField(tbl, "root", lua.LString(proj.Root()))
	L.SetField(tbl, "compile_path", lua.LString(proj.CompilePath()))
	L.SetField(tbl, "dependencies", h.bridge.ToLuaValue(proj.Dependencies()))
	return tbl
}

// stringList converts a Lua array table to a string slice.
func (h *Host) stringList(tbl *lua.LTable) []string {
	out := make([]string, 0, tbl.Len())
	tbl.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}
