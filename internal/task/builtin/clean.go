package builtin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

func cleanEntry(svc *Services) *task.Entry {
	return task.NewEntry("clean", "Remove compiled output", "", func(proj *project.Context, args []string) (int, error) {
		return runClean(svc, proj)
	})
}

func runClean(svc *Services, proj *project.Context) (int, error) {
	target := filepath.Clean(proj.CompilePath())

	// Refuse degenerate targets that would wipe the project itself.
	if target == "" || target == string(filepath.Separator) || target == filepath.Clean(proj.Root()) {
		return 1, fmt.Errorf("clean: refusing to remove %q", target)
	}

	if _, err := os.Stat(target); os.IsNotExist(err) {
		return 0, nil
	}

	if err := os.RemoveAll(target); err != nil {
		return 1, fmt.Errorf("clean: %w", err)
	}
	fmt.Fprintf(svc.Out, "Removed %s\n", target)
	return 0, nil
}
