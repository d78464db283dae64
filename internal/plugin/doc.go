// Package plugin discovers, loads, and hosts quarry plugins.
//
// A plugin is a directory containing a plugin.json manifest and Lua
// source. Plugins contribute two things:
//
//   - tasks: the manifest declares each contributed command, and the
//     plugin's Lua code defines a same-named global function with the
//     signature function(project, args) -> exit code
//   - hooks: the plugin's Lua code wraps existing tasks by calling
//     quarry.add_hook(target, wrapper) at load time, or from an optional
//     activate() function that is invoked exactly once after loading
//
// Task plugins are located by naming convention: resolving an unknown
// command <cmd> looks for a plugin named quarry-<cmd> in the search
// paths. Hook plugins are named explicitly in the project descriptor's
// hooks list and loaded on demand when the project is built.
//
// Each plugin runs in its own sandboxed Lua state; plugins cannot load
// modules from disk and see only the quarry module plus the safe Lua
// built-ins.
package plugin
