// Package eval implements the eval-in-project boundary.
//
// EvalInProject runs a form of code in an isolated evaluation context
// whose module search path is derived strictly from the project context's
// own declared dependencies. The host tool's runtime, plugin states, and
// Lua modules are never visible inside it, so the tool and the target
// project can depend on conflicting library versions without collision.
//
// Each request gets a fresh sandboxed state. The result is an integer
// status: 0 for success, the value passed to exit(n) or returned as a
// number by the main form otherwise. A crash inside the evaluation
// (uncaught Lua error or panic) is reported on the engine's error writer
// and yields status 1 - it is never re-raised in the host. Failure to
// construct the environment at all (an invalid or unresolvable dependency
// spec) is a *SetupError, distinct from any nonzero result.
//
// Callers wanting one-off dependency injection pass a derived context
// (Context.WithDependency) or a synthetic one (project.Synthetic) without
// touching the real project's descriptor.
package eval
