package task

import "github.com/dshills/quarry/internal/project"

// BootstrapCommand is the one command permitted to run without an
// existing project regardless of entry metadata: it creates a brand-new
// project from a template.
const BootstrapCommand = "new"

// Func is the entry point of a task. The project context is nil for
// tasks that run without one. Arguments arrive as the raw command-line
// strings; the resolver performs no coercion. The returned int becomes
// the process exit code; a non-nil error marks an unexpected failure.
type Func func(proj *project.Context, args []string) (int, error)

// Entry identifies one unit of work resolvable from a command string.
type Entry struct {
	// Name is the canonical command name.
	Name string

	// Doc is a one-line description shown by help.
	Doc string

	// ArgSpec describes the accepted arguments, e.g. "<name> [dir]".
	ArgSpec string

	// NeedsProject reports whether the task requires a project context.
	// Defaults to true via NewEntry.
	NeedsProject bool

	// Provider names the contributor ("builtin" or a plugin name).
	Provider string

	// Run is the underlying callable.
	Run Func
}

// NewEntry constructs a builtin entry with NeedsProject defaulted to true.
func NewEntry(name, doc, argSpec string, run Func) *Entry {
	return &Entry{
		Name:         name,
		Doc:          doc,
		ArgSpec:      argSpec,
		NeedsProject: true,
		Provider:     "builtin",
		Run:          run,
	}
}

// RequiresProject reports whether the entry needs a project context.
// The bootstrap command never does, regardless of metadata.
func RequiresProject(e *Entry) bool {
	if e.Name == BootstrapCommand {
		return false
	}
	return e.NeedsProject
}
