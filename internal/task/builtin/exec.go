package builtin

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

func execEntry(svc *Services) *task.Entry {
	return task.NewEntry("exec", "Run a command in the project root", "<cmd> [args...]", func(proj *project.Context, args []string) (int, error) {
		return runExec(svc, proj, args)
	})
}

// runExec starts the command under the supervisor so a dispatcher
// shutdown can still reap it, and forwards the child's exit code.
func runExec(svc *Services, proj *project.Context, args []string) (int, error) {
	if len(args) == 0 {
		return 1, fmt.Errorf("exec: missing command")
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = proj.Root()
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	code, err := svc.Supervisor.Run(args[0], cmd)
	if err != nil {
		return 1, fmt.Errorf("exec: %w", err)
	}
	return code, nil
}
