// Package lua provides the sandboxed Lua runtime shared by quarry's
// descriptor loader, plugin hosts, and the eval-in-project boundary.
//
// Each State wraps a gopher-lua LState with only safe standard libraries
// opened, a guarded require that resolves modules against an explicit set
// of search roots, and a trapped exit() so evaluated code can report a
// status without terminating the host process.
//
// The three consumers configure states differently:
//   - descriptor loading: no module roots, no system libraries
//   - plugin hosts: no module roots, the "quarry" module preloaded
//   - eval-in-project: module roots derived from the project's declared
//     dependencies, system libraries opened
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. All operations on
// a State must come from a single goroutine; the internal mutex guards
// against accidental concurrent use from Go code but does not make Lua
// execution concurrent.
package lua
