// Package hook implements the wrapper composition engine.
//
// Plugins alter a task's behavior without editing it by registering
// wrapper functions against the task's name. At call time the registered
// wrappers are composed into a single callable with the same signature as
// the original: the first-registered wrapper is the outermost layer, and
// each wrapper receives the next callable in the chain, which it must
// invoke explicitly for inner layers (and eventually the original task)
// to run at all. A wrapper that never calls through short-circuits
// everything inside it; return values and errors propagate outward unless
// an outer layer deliberately transforms them.
//
// Composition is an explicit middleware chain held in a registry, never a
// rebinding of the original function. Registering the identical wrapper
// function for the identical target twice has the effect of a single
// registration.
//
// Registration is expected during the single-threaded loading phase,
// before any task executes; the registry is nonetheless mutex-guarded.
package hook
