package eval

import (
	"errors"
	"fmt"
)

// Standard errors returned by the eval package.
var (
	// ErrNilContext indicates EvalInProject was called without a context.
	ErrNilContext = errors.New("eval requires a project context")

	// ErrEngineClosed indicates the engine has been shut down.
	ErrEngineClosed = errors.New("eval engine is shut down")

	// ErrEmptyDependency indicates a dependency entry with no content.
	ErrEmptyDependency = errors.New("empty dependency entry")
)

// SetupError reports that the isolated environment could not be
// constructed. It is distinct from a nonzero result of running code
// inside a successfully constructed environment.
type SetupError struct {
	Dep string // offending dependency entry, when applicable
	Err error  // underlying cause
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Dep != "" {
		return fmt.Sprintf("eval setup: dependency %q: %v", e.Dep, e.Err)
	}
	return fmt.Sprintf("eval setup: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SetupError) Unwrap() error {
	return e.Err
}
