package project

import (
	"errors"
	"fmt"
)

// Standard errors returned by the project package.
var (
	// ErrNoDeclaration indicates the descriptor never declared a project.
	ErrNoDeclaration = errors.New("descriptor contains no project declaration")

	// ErrMissingVersion indicates the declaration omitted the version.
	ErrMissingVersion = errors.New("project declaration has no version")

	// ErrEmptyName indicates the declaration supplied an empty name.
	ErrEmptyName = errors.New("project name is empty")
)

// DescriptorError reports a descriptor that is missing or failed to
// evaluate. No partial context is ever returned alongside one.
type DescriptorError struct {
	Path string // descriptor file path
	Err  error  // underlying cause
}

// Error implements the error interface.
func (e *DescriptorError) Error() string {
	return fmt.Sprintf("load descriptor %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DescriptorError) Unwrap() error {
	return e.Err
}
