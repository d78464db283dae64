// Package dispatch implements the top-level command dispatcher: it
// resolves a command to a task entry, loads the project context when the
// task needs one, activates project-declared hooks, invokes the
// hook-composed task, and converts the outcome into a process exit code.
// After the task completes it performs a best-effort shutdown of
// background facilities without ever altering the determined exit code.
package dispatch
