package lua

import (
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts a Lua state to safe operations and tracks the exit trap.
//
// Module loading is the isolation mechanism quarry cares about: require()
// may only resolve the safe built-in libraries, modules explicitly allowed
// by the host (see State.RegisterModule), and files found under the state's
// configured module roots. A state with no module roots cannot load any
// code from disk.
type Sandbox struct {
	L *lua.LState

	modulePaths []string

	mu      sync.Mutex
	allowed map[string]bool

	exitCode   int
	exitCalled bool
}

// safeModules are gopher-lua built-ins that require() may always load.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState, modulePaths []string) *Sandbox {
	return &Sandbox{
		L:           L,
		modulePaths: modulePaths,
		allowed:     make(map[string]bool),
	}
}

// Install applies the sandbox restrictions to the state.
func (s *Sandbox) Install() {
	// Remove functions that load arbitrary code outside require's control.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installRequireGuard()
	s.installExitTrap()
}

// AllowModule permits require() to load the named preloaded module.
func (s *Sandbox) AllowModule(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed[name] = true
}

// installRequireGuard replaces require with a version restricted to safe
// built-ins, host-allowed modules, and the configured module roots.
func (s *Sandbox) installRequireGuard() {
	// Constrain package.path to the configured roots (empty when none) and
	// disable C module loading entirely.
	var patterns []string
	for _, dir := range s.modulePaths {
		patterns = append(patterns, dir+"/?.lua", dir+"/?/init.lua")
	}
	pkg := s.L.GetGlobal("package")
	if pkgTable, ok := pkg.(*lua.LTable); ok {
		s.L.SetField(pkgTable, "path", lua.LString(strings.Join(patterns, ";")))
		s.L.SetField(pkgTable, "cpath", lua.LString(""))
	}

	originalRequire := s.L.GetGlobal("require")
	fromDisk := len(s.modulePaths) > 0

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		s.mu.Lock()
		hostAllowed := s.allowed[modName]
		s.mu.Unlock()

		if safeModules[modName] || hostAllowed || fromDisk {
			L.Push(originalRequire)
			L.Push(lua.LString(modName))
			L.Call(1, 1)
			return 1
		}

		L.RaiseError("module %q is not available", modName)
		return 0 // unreachable
	}))
}

// installExitTrap replaces process-terminating exits with a recorded status.
// Evaluated code calls exit(n) (or os.exit(n)); the host reads the status
// via ExitStatus after the evaluation returns with an error.
func (s *Sandbox) installExitTrap() {
	trap := s.L.NewFunction(func(L *lua.LState) int {
		code := L.OptInt(1, 0)
		s.mu.Lock()
		s.exitCode = code
		s.exitCalled = true
		s.mu.Unlock()
		L.RaiseError("exit(%d)", code)
		return 0 // unreachable
	})

	s.L.SetGlobal("exit", trap)

	if osTable, ok := s.L.GetGlobal("os").(*lua.LTable); ok {
		s.L.SetField(osTable, "exit", trap)
	}
}

// ExitStatus reports whether exit was called, and with what code.
func (s *Sandbox) ExitStatus() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.exitCalled
}

// ResetExitStatus clears a recorded exit, for states evaluated repeatedly.
func (s *Sandbox) ResetExitStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitCode = 0
	s.exitCalled = false
}
