package builtin

import (
	"fmt"
	"runtime"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

func versionEntry(svc *Services) *task.Entry {
	e := task.NewEntry("version", "Print the quarry version", "", func(proj *project.Context, args []string) (int, error) {
		fmt.Fprintf(svc.Out, "quarry %s %s/%s\n", svc.Version, runtime.GOOS, runtime.GOARCH)
		return 0, nil
	})
	e.NeedsProject = false
	return e
}
