// Package project defines the project context and the descriptor loader.
//
// A Context is the immutable per-invocation view of one project's build
// configuration. It is constructed exactly once per invocation by loading
// the project descriptor (project.lua) and is passed explicitly to every
// task; there is no ambient "current project" state. Derived contexts
// (for example with an injected dependency) are produced by structural
// update, never by mutating the original.
//
// The descriptor is a Lua source file evaluated in a restricted state in
// which a `project` function is predefined. The declaration form is a
// chained call:
//
//	project "group.example/webapp" "1.2.0" {
//	    dependencies = { "inspect", "vendor/lpeg" },
//	    compile_path = "out",
//	    hooks = { "quarry-timing" },
//	}
//
// The first string supplies the project name and, when namespaced with a
// slash, its group; the second supplies the version; the trailing table
// populates the configuration map verbatim.
package project
