package lua

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
)

func newTestState(t *testing.T, opts ...StateOption) *State {
	t.Helper()
	s, err := NewState(opts...)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDoString(t *testing.T) {
	s := newTestState(t)

	if err := s.DoString(`x = 1 + 2`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got := s.GetGlobal("x"); got != lua.LNumber(3) {
		t.Errorf("x = %v, want 3", got)
	}
}

func TestEvalStringResults(t *testing.T) {
	s := newTestState(t)

	results, err := s.EvalString(`return 1, "two", true`)
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0] != lua.LNumber(1) {
		t.Errorf("results[0] = %v", results[0])
	}
	if results[1] != lua.LString("two") {
		t.Errorf("results[1] = %v", results[1])
	}
	if results[2] != lua.LTrue {
		t.Errorf("results[2] = %v", results[2])
	}
}

func TestEvalStringNoResults(t *testing.T) {
	s := newTestState(t)

	results, err := s.EvalString(`local x = 1`)
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("results = %v, want empty non-nil slice", results)
	}
}

func TestEvalStringSyntaxError(t *testing.T) {
	s := newTestState(t)

	if _, err := s.EvalString(`return ((`); err == nil {
		t.Error("expected syntax error")
	}
}

func TestCall(t *testing.T) {
	s := newTestState(t)

	if err := s.DoString(`function double(n) return n * 2 end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}

	results, err := s.Call("double", lua.LNumber(21))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(results) != 1 || results[0] != lua.LNumber(42) {
		t.Errorf("results = %v, want [42]", results)
	}
}

func TestCallMissingFunction(t *testing.T) {
	s := newTestState(t)

	if _, err := s.Call("nonexistent"); err == nil {
		t.Error("expected error calling missing function")
	}
}

func TestRegisterModule(t *testing.T) {
	s := newTestState(t)

	s.RegisterModule("host", map[string]lua.LGFunction{
		"answer": func(L *lua.LState) int {
			L.Push(lua.LNumber(42))
			return 1
		},
	})

	results, err := s.EvalString(`local h = require("host") return h.answer()`)
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if len(results) != 1 || results[0] != lua.LNumber(42) {
		t.Errorf("results = %v, want [42]", results)
	}
}

func TestClosedState(t *testing.T) {
	s := newTestState(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := s.DoString(`x = 1`); err != ErrStateClosed {
		t.Errorf("DoString after close = %v, want ErrStateClosed", err)
	}
	if !s.IsClosed() {
		t.Error("IsClosed = false after Close")
	}

	// Double close is a no-op.
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSandboxRemovesLoaders(t *testing.T) {
	s := newTestState(t)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		if got := s.GetGlobal(name); got != lua.LNil {
			t.Errorf("%s = %v, want nil", name, got)
		}
	}
}

func TestSandboxRequireRejected(t *testing.T) {
	s := newTestState(t)

	if err := s.DoString(`require("socket")`); err == nil {
		t.Error("require of unknown module succeeded")
	}
}

func TestSandboxRequireSafeModules(t *testing.T) {
	s := newTestState(t)

	for _, mod := range []string{"string", "table", "math"} {
		if err := s.DoString(`require("` + mod + `")`); err != nil {
			t.Errorf("require(%q): %v", mod, err)
		}
	}
}

func TestSandboxModulePaths(t *testing.T) {
	dir := t.TempDir()
	module := filepath.Join(dir, "helper.lua")
	if err := os.WriteFile(module, []byte(`return { value = 7 }`), 0o644); err != nil {
		t.Fatalf("writing module: %v", err)
	}

	s := newTestState(t, WithModulePaths(dir))

	results, err := s.EvalString(`local h = require("helper") return h.value`)
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if len(results) != 1 || results[0] != lua.LNumber(7) {
		t.Errorf("results = %v, want [7]", results)
	}
}

func TestSandboxExitTrap(t *testing.T) {
	s := newTestState(t)

	err := s.DoString(`exit(3)`)
	if err == nil {
		t.Fatal("exit did not interrupt evaluation")
	}

	code, called := s.ExitStatus()
	if !called {
		t.Fatal("exit status not recorded")
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestSandboxExitDefaultsToZero(t *testing.T) {
	s := newTestState(t)

	if err := s.DoString(`exit()`); err == nil {
		t.Fatal("exit did not interrupt evaluation")
	}
	code, called := s.ExitStatus()
	if !called || code != 0 {
		t.Errorf("ExitStatus = (%d, %v), want (0, true)", code, called)
	}
}

func TestSandboxOsExitTrapped(t *testing.T) {
	s := newTestState(t, WithSystemLibs())

	if err := s.DoString(`os.exit(2)`); err == nil {
		t.Fatal("os.exit did not interrupt evaluation")
	}
	code, called := s.ExitStatus()
	if !called || code != 2 {
		t.Errorf("ExitStatus = (%d, %v), want (2, true)", code, called)
	}
}

func TestSandboxResetExitStatus(t *testing.T) {
	s := newTestState(t)

	_ = s.DoString(`exit(1)`)
	s.Sandbox().ResetExitStatus()

	if _, called := s.ExitStatus(); called {
		t.Error("exit status survived reset")
	}
}

func TestSystemLibsGated(t *testing.T) {
	plain := newTestState(t)
	if got := plain.GetGlobal("io"); got != lua.LNil {
		t.Errorf("io available without system libs: %v", got)
	}

	system := newTestState(t, WithSystemLibs())
	if got := system.GetGlobal("io"); got == lua.LNil {
		t.Error("io unavailable with system libs")
	}
}

func TestExecutionTimeout(t *testing.T) {
	s := newTestState(t, WithExecutionTimeout(50*time.Millisecond))

	err := s.DoString(`while true do end`)
	if err == nil {
		t.Fatal("infinite loop was not interrupted")
	}
	if !strings.Contains(err.Error(), "context") && !strings.Contains(err.Error(), "deadline") {
		t.Logf("interrupt error: %v", err)
	}
}
