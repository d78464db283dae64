package builtin

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

func helpEntry(svc *Services) *task.Entry {
	e := task.NewEntry("help", "Show available tasks", "[task]", func(proj *project.Context, args []string) (int, error) {
		return runHelp(svc, args)
	})
	e.NeedsProject = false
	return e
}

func runHelp(svc *Services, args []string) (int, error) {
	if len(args) > 0 {
		return helpFor(svc, args[0])
	}

	fmt.Fprintf(svc.Out, "quarry %s\n\n", svc.Version)
	fmt.Fprintln(svc.Out, "Usage: quarry <task> [args...]")
	fmt.Fprintln(svc.Out)
	fmt.Fprintln(svc.Out, "Tasks:")

	tw := tabwriter.NewWriter(svc.Out, 2, 4, 2, ' ', 0)
	for _, e := range svc.Registry.Builtins() {
		fmt.Fprintf(tw, "  %s\t%s\n", e.Name, e.Doc)
	}
	if err := tw.Flush(); err != nil {
		return 1, err
	}

	aliases := task.Aliases()
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(svc.Out)
	fmt.Fprintln(svc.Out, "Aliases:")
	for _, name := range names {
		fmt.Fprintf(svc.Out, "  %s -> %s\n", name, aliases[name])
	}
	return 0, nil
}

// helpFor prints the detailed usage line for a single task.
func helpFor(svc *Services, command string) (int, error) {
	entry, err := svc.Registry.Resolve(command)
	if err != nil {
		return 1, err
	}

	fmt.Fprintf(svc.Out, "quarry %s %s\n", entry.Name, entry.ArgSpec)
	if entry.Doc != "" {
		fmt.Fprintf(svc.Out, "  %s\n", entry.Doc)
	}
	if entry.Provider != "builtin" {
		fmt.Fprintf(svc.Out, "  provided by plugin %q\n", entry.Provider)
	}
	if task.RequiresProject(entry) {
		fmt.Fprintln(svc.Out, "  requires a project descriptor")
	}
	return 0, nil
}
