// Package task provides the command registry and resolver.
//
// A task is a named unit of work invoked as `quarry <command> [args...]`.
// Built-in tasks register themselves in a Registry at startup; plugins
// contribute further tasks through a Provider, which the resolver consults
// on demand using the quarry-<command> naming convention.
//
// Resolution applies alias substitution exactly once (single hop) before
// any lookup, so resolve("-h") and resolve("help") are identical. A
// command offered by more than one contributor is a configuration error
// reported at resolution time, never resolved silently.
package task
