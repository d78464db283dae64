// Package builtin registers quarry's built-in tasks: help, version,
// new, run, eval, exec, and clean.
//
// Builtins receive their collaborators (task registry, eval engine,
// process supervisor) through a Services value at registration time, so
// the task functions themselves stay plain task.Funcs.
package builtin
