// Package process supervises subprocesses started by tasks.
//
// Tasks run external commands through a Supervisor so the dispatcher can
// perform its final best-effort shutdown: any background work still alive
// after the task returns is terminated (TERM, then KILL after a bound)
// without ever masking the task's own exit code.
//
// A foreground command (the exec builtin) uses Run, which blocks until
// the command exits and reports its exit code. Background work uses
// Start, which returns a tracked handle.
package process
