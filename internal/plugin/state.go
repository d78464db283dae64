package plugin

// State represents the lifecycle state of a plugin.
type State int

// Plugin states.
const (
	// StateUnloaded - plugin is not loaded.
	StateUnloaded State = iota

	// StateLoaded - plugin code is loaded but not activated.
	StateLoaded

	// StateActive - plugin is active.
	StateActive

	// StateError - plugin encountered an error.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsUsable returns true if the plugin can serve tasks and hooks.
func (s State) IsUsable() bool {
	return s == StateLoaded || s == StateActive
}
