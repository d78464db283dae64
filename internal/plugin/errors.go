package plugin

import (
	"errors"
	"fmt"
)

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin cannot be located.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoEntryPoint is returned when a plugin has no main Lua file.
	ErrNoEntryPoint = errors.New("plugin has no entry point")

	// ErrNilManifest is returned when a nil manifest is provided.
	ErrNilManifest = errors.New("manifest is nil")

	// ErrAlreadyLoaded is returned when loading an already loaded plugin.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrNotLoaded is returned when using an unloaded plugin.
	ErrNotLoaded = errors.New("plugin is not loaded")

	// ErrInvalidManifest is returned when manifest validation fails.
	ErrInvalidManifest = errors.New("invalid plugin manifest")
)

// HookLoadError reports a hook plugin (declared in the project
// descriptor) that failed to load or whose activation failed. Whether it
// aborts the invocation is the dispatcher's policy choice; by default it
// does, since a requested behavior modification could otherwise silently
// fail to apply.
type HookLoadError struct {
	Plugin string // hook plugin identifier from the descriptor
	Err    error  // underlying cause
}

// Error implements the error interface.
func (e *HookLoadError) Error() string {
	return fmt.Sprintf("load hooks %q: %v", e.Plugin, e.Err)
}

// Unwrap returns the underlying error.
func (e *HookLoadError) Unwrap() error {
	return e.Err
}
