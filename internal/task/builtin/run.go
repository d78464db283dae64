package builtin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

func runEntry(svc *Services) *task.Entry {
	return task.NewEntry("run", "Run a script inside the project environment", "[script]", func(proj *project.Context, args []string) (int, error) {
		return runRun(svc, proj, args)
	})
}

// runRun evaluates a script file in the project environment. Without an
// argument it falls back to src/main.lua under the project root.
func runRun(svc *Services, proj *project.Context, args []string) (int, error) {
	script := filepath.Join(proj.Root(), "src", "main.lua")
	if len(args) > 0 {
		script = args[0]
		if !filepath.IsAbs(script) {
			script = filepath.Join(proj.Root(), script)
		}
	}

	source, err := os.ReadFile(script)
	if err != nil {
		return 1, fmt.Errorf("run: %w", err)
	}

	return svc.Engine.EvalInProject(proj, string(source), "")
}

func evalEntry(svc *Services) *task.Entry {
	return task.NewEntry("eval", "Evaluate a form inside the project environment", "[-i <init-form>] <form>", func(proj *project.Context, args []string) (int, error) {
		initForm := ""
		if len(args) >= 2 && args[0] == "-i" {
			initForm = args[1]
			args = args[2:]
		}
		if len(args) == 0 {
			return 1, fmt.Errorf("eval: missing form")
		}
		return svc.Engine.EvalInProject(proj, args[0], initForm)
	})
}
