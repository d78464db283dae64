package task

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors returned by the task package.
var (
	// ErrDuplicateEntry indicates a builtin was registered twice.
	ErrDuplicateEntry = errors.New("task already registered")

	// ErrNilRun indicates an entry without a callable was registered.
	ErrNilRun = errors.New("task entry has no run function")
)

// NotFoundError reports a command with no resolvable implementation after
// alias substitution. It is surfaced to the dispatcher, which reports it
// and exits nonzero; it is not a fatal abort by itself.
type NotFoundError struct {
	Command string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q is not a task", e.Command)
}

// AmbiguousError reports a command contributed by more than one provider.
type AmbiguousError struct {
	Command   string
	Providers []string
}

// Error implements the error interface.
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("task %q is provided by multiple sources: %s",
		e.Command, strings.Join(e.Providers, ", "))
}
