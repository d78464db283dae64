package builtin

import (
	"io"
	"os"

	"github.com/dshills/quarry/internal/eval"
	"github.com/dshills/quarry/internal/process"
	"github.com/dshills/quarry/internal/task"
)

// Services are the collaborators the built-in tasks draw on.
type Services struct {
	// Registry is consulted by help for the known tasks and aliases.
	Registry *task.Registry

	// Engine runs code in the isolated project environment.
	Engine *eval.Engine

	// Supervisor tracks subprocesses started by exec.
	Supervisor *process.Supervisor

	// Version is the tool version string.
	Version string

	// Out receives task output. Defaults to os.Stdout.
	Out io.Writer
}

// Register adds every built-in task to the registry.
func Register(svc *Services) error {
	if svc.Out == nil {
		svc.Out = os.Stdout
	}

	entries := []*task.Entry{
		helpEntry(svc),
		versionEntry(svc),
		newEntry(svc),
		runEntry(svc),
		evalEntry(svc),
		execEntry(svc),
		cleanEntry(svc),
	}

	for _, e := range entries {
		if err := svc.Registry.Register(e); err != nil {
			return err
		}
	}
	return nil
}
