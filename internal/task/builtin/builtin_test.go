package builtin

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/quarry/internal/eval"
	"github.com/dshills/quarry/internal/process"
	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

func newServices(t *testing.T) (*Services, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	svc := &Services{
		Registry:   task.NewRegistry(),
		Engine:     eval.NewEngine(eval.WithErrorWriter(&out)),
		Supervisor: process.NewSupervisor(),
		Version:    "1.2.3",
		Out:        &out,
	}
	t.Cleanup(func() {
		svc.Engine.Shutdown()
		svc.Supervisor.Shutdown(time.Second)
	})

	if err := Register(svc); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return svc, &out
}

func run(t *testing.T, svc *Services, proj *project.Context, command string, args ...string) (int, error) {
	t.Helper()
	entry, err := svc.Registry.Resolve(command)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", command, err)
	}
	return entry.Run(proj, args)
}

func TestRegisterAll(t *testing.T) {
	svc, _ := newServices(t)

	for _, name := range []string{"help", "version", "new", "run", "eval", "exec", "clean"} {
		if _, err := svc.Registry.Resolve(name); err != nil {
			t.Errorf("Resolve(%s): %v", name, err)
		}
	}
}

func TestProjectRequirements(t *testing.T) {
	svc, _ := newServices(t)

	tests := []struct {
		command string
		want    bool
	}{
		{"help", false},
		{"version", false},
		{"new", false},
		{"run", true},
		{"eval", true},
		{"exec", true},
		{"clean", true},
	}
	for _, tt := range tests {
		entry, err := svc.Registry.Resolve(tt.command)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tt.command, err)
		}
		if got := task.RequiresProject(entry); got != tt.want {
			t.Errorf("RequiresProject(%s) = %v, want %v", tt.command, got, tt.want)
		}
	}
}

func TestHelpListsTasks(t *testing.T) {
	svc, out := newServices(t)

	code, err := run(t, svc, nil, "help")
	if err != nil || code != 0 {
		t.Fatalf("help = (%d, %v)", code, err)
	}

	for _, want := range []string{"version", "new", "clean", "Aliases", "-h -> help"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q:\n%s", want, out.String())
		}
	}
}

func TestHelpForSingleTask(t *testing.T) {
	svc, out := newServices(t)

	code, err := run(t, svc, nil, "help", "new")
	if err != nil || code != 0 {
		t.Fatalf("help new = (%d, %v)", code, err)
	}
	if !strings.Contains(out.String(), "quarry new <name> [dir]") {
		t.Errorf("help output = %q", out.String())
	}
}

func TestHelpUnknownTask(t *testing.T) {
	svc, _ := newServices(t)

	if code, err := run(t, svc, nil, "help", "bogus"); code != 1 || err == nil {
		t.Errorf("help bogus = (%d, %v), want (1, error)", code, err)
	}
}

func TestVersion(t *testing.T) {
	svc, out := newServices(t)

	code, err := run(t, svc, nil, "version")
	if err != nil || code != 0 {
		t.Fatalf("version = (%d, %v)", code, err)
	}
	if !strings.Contains(out.String(), "1.2.3") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestNewGeneratesProject(t *testing.T) {
	svc, _ := newServices(t)
	dir := filepath.Join(t.TempDir(), "demo")

	code, err := run(t, svc, nil, "new", "demo", dir)
	if err != nil || code != 0 {
		t.Fatalf("new = (%d, %v)", code, err)
	}

	ctx, err := project.Load(filepath.Join(dir, project.DescriptorFileName))
	if err != nil {
		t.Fatalf("generated descriptor does not load: %v", err)
	}
	if ctx.Name() != "demo" || ctx.Version() != defaultNewVersion {
		t.Errorf("generated context = %s", ctx)
	}

	if _, err := os.Stat(filepath.Join(dir, "src", "main.lua")); err != nil {
		t.Errorf("missing generated source: %v", err)
	}
}

func TestNewNamespacedName(t *testing.T) {
	svc, _ := newServices(t)
	dir := filepath.Join(t.TempDir(), "webapp")

	code, err := run(t, svc, nil, "new", "org.example/webapp", dir)
	if err != nil || code != 0 {
		t.Fatalf("new = (%d, %v)", code, err)
	}

	ctx, err := project.Load(filepath.Join(dir, project.DescriptorFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ctx.Name() != "webapp" || ctx.Group() != "org.example" {
		t.Errorf("name/group = %q/%q", ctx.Name(), ctx.Group())
	}
}

func TestNewRefusesExistingProject(t *testing.T) {
	svc, _ := newServices(t)
	dir := filepath.Join(t.TempDir(), "demo")

	if code, err := run(t, svc, nil, "new", "demo", dir); err != nil || code != 0 {
		t.Fatalf("first new = (%d, %v)", code, err)
	}
	if code, err := run(t, svc, nil, "new", "demo", dir); code != 1 || err == nil {
		t.Errorf("second new = (%d, %v), want (1, error)", code, err)
	}
}

func TestNewMissingName(t *testing.T) {
	svc, _ := newServices(t)
	if code, err := run(t, svc, nil, "new"); code != 1 || err == nil {
		t.Errorf("new = (%d, %v), want (1, error)", code, err)
	}
}

func TestRunDefaultScript(t *testing.T) {
	svc, _ := newServices(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "main.lua"), []byte(`return 2`), 0o644); err != nil {
		t.Fatal(err)
	}

	proj := project.New("foo", "1.0", root, nil)
	code, err := run(t, svc, proj, "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 2 {
		t.Errorf("code = %d, want 2", code)
	}
}

func TestRunMissingScript(t *testing.T) {
	svc, _ := newServices(t)
	proj := project.New("foo", "1.0", t.TempDir(), nil)

	if code, err := run(t, svc, proj, "run", "nope.lua"); code != 1 || err == nil {
		t.Errorf("run = (%d, %v), want (1, error)", code, err)
	}
}

func TestEvalForm(t *testing.T) {
	svc, _ := newServices(t)
	proj := project.New("foo", "1.0", t.TempDir(), nil)

	code, err := run(t, svc, proj, "eval", "return 3")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if code != 3 {
		t.Errorf("code = %d, want 3", code)
	}
}

func TestEvalWithInitForm(t *testing.T) {
	svc, _ := newServices(t)
	proj := project.New("foo", "1.0", t.TempDir(), nil)

	code, err := run(t, svc, proj, "eval", "-i", "seeded = 6", "return seeded")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if code != 6 {
		t.Errorf("code = %d, want 6", code)
	}
}

func TestEvalMissingForm(t *testing.T) {
	svc, _ := newServices(t)
	proj := project.New("foo", "1.0", t.TempDir(), nil)

	if code, err := run(t, svc, proj, "eval"); code != 1 || err == nil {
		t.Errorf("eval = (%d, %v), want (1, error)", code, err)
	}
}

func TestExecForwardsExitCode(t *testing.T) {
	svc, _ := newServices(t)
	proj := project.New("foo", "1.0", t.TempDir(), nil)

	code, err := run(t, svc, proj, "exec", "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if code != 3 {
		t.Errorf("code = %d, want 3", code)
	}
}

func TestExecRunsInProjectRoot(t *testing.T) {
	svc, _ := newServices(t)
	root := t.TempDir()
	proj := project.New("foo", "1.0", root, nil)

	code, err := run(t, svc, proj, "exec", "sh", "-c", `[ "$(pwd)" = "`+root+`" ]`)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if code != 0 {
		t.Errorf("working directory is not the project root")
	}
}

func TestExecMissingCommand(t *testing.T) {
	svc, _ := newServices(t)
	proj := project.New("foo", "1.0", t.TempDir(), nil)

	if code, err := run(t, svc, proj, "exec"); code != 1 || err == nil {
		t.Errorf("exec = (%d, %v), want (1, error)", code, err)
	}
}

func TestCleanRemovesCompilePath(t *testing.T) {
	svc, _ := newServices(t)
	root := t.TempDir()
	proj := project.New("foo", "1.0", root, nil)

	if err := os.MkdirAll(proj.CompilePath(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj.CompilePath(), "a.out"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, err := run(t, svc, proj, "clean")
	if err != nil || code != 0 {
		t.Fatalf("clean = (%d, %v)", code, err)
	}
	if _, err := os.Stat(proj.CompilePath()); !os.IsNotExist(err) {
		t.Error("compile path still exists")
	}
}

func TestCleanMissingCompilePath(t *testing.T) {
	svc, _ := newServices(t)
	proj := project.New("foo", "1.0", t.TempDir(), nil)

	if code, err := run(t, svc, proj, "clean"); err != nil || code != 0 {
		t.Errorf("clean = (%d, %v), want (0, nil)", code, err)
	}
}

func TestCleanRefusesProjectRoot(t *testing.T) {
	svc, _ := newServices(t)
	root := t.TempDir()
	proj := project.New("foo", "1.0", root, nil).WithCompilePath(root)

	if code, err := run(t, svc, proj, "clean"); code != 1 || err == nil {
		t.Errorf("clean = (%d, %v), want refusal", code, err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Error("project root was removed")
	}
}
