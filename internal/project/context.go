package project

import "strings"

// Context is the immutable per-invocation build configuration of one
// project. Zero-value Contexts are not used; construct via Load, New, or
// Synthetic. All "modifying" methods return a derived copy.
type Context struct {
	name         string
	group        string
	version      string
	root         string
	compilePath  string
	dependencies []string
	hooks        []string
	values       map[string]any
}

// New constructs a context directly, deriving the group from the name the
// same way the descriptor loader does. Intended for tests and for callers
// that assemble a context without a descriptor file.
func New(name, version, root string, values map[string]any) *Context {
	ctx := &Context{
		version: version,
		root:    root,
		values:  copyValues(values),
	}
	ctx.name, ctx.group = splitName(name)
	ctx.dependencies = stringSlice(ctx.values["dependencies"])
	ctx.hooks = stringSlice(ctx.values["hooks"])
	ctx.compilePath = resolveCompilePath(ctx.values, root)
	return ctx
}

// Synthetic builds a minimal context carrying only the given dependencies.
// Used for one-off evaluation where no real project is involved.
func Synthetic(dependencies ...string) *Context {
	return &Context{
		dependencies: append([]string(nil), dependencies...),
		values:       map[string]any{},
	}
}

// Name returns the project name (without the group segment).
func (c *Context) Name() string { return c.name }

// Group returns the project group. When the declared name carries no
// namespace the group equals the name.
func (c *Context) Group() string { return c.group }

// Version returns the declared project version.
func (c *Context) Version() string { return c.version }

// Root returns the absolute path of the directory containing the
// descriptor file. Empty for synthetic contexts.
func (c *Context) Root() string { return c.root }

// CompilePath returns the effective build-output directory.
func (c *Context) CompilePath() string { return c.compilePath }

// Dependencies returns the declared dependency list.
func (c *Context) Dependencies() []string {
	return append([]string(nil), c.dependencies...)
}

// Hooks returns the hook plugin identifiers declared by the descriptor.
func (c *Context) Hooks() []string {
	return append([]string(nil), c.hooks...)
}

// Value returns an arbitrary descriptor key. Callers must treat returned
// values as read-only.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns a short identification, e.g. "group/name 1.0.0".
func (c *Context) String() string {
	if c.name == "" {
		return "(synthetic)"
	}
	if c.group != c.name {
		return c.group + "/" + c.name + " " + c.version
	}
	return c.name + " " + c.version
}

// WithDependency returns a derived context with dep appended to the
// dependency list. The receiver is unchanged.
func (c *Context) WithDependency(dep string) *Context {
	derived := c.clone()
	derived.dependencies = append(derived.dependencies, dep)
	return derived
}

// WithValue returns a derived context with the key set. The receiver is
// unchanged.
func (c *Context) WithValue(key string, value any) *Context {
	derived := c.clone()
	derived.values[key] = value
	return derived
}

// WithCompilePath returns a derived context with the effective
// build-output directory replaced.
func (c *Context) WithCompilePath(path string) *Context {
	derived := c.clone()
	derived.compilePath = path
	return derived
}

// clone performs the structural copy backing every derived context.
func (c *Context) clone() *Context {
	return &Context{
		name:         c.name,
		group:        c.group,
		version:      c.version,
		root:         c.root,
		compilePath:  c.compilePath,
		dependencies: append([]string(nil), c.dependencies...),
		hooks:        append([]string(nil), c.hooks...),
		values:       copyValues(c.values),
	}
}

// splitName splits a declared name into name and group. A namespaced name
// like "org.example/webapp" yields ("webapp", "org.example"); a bare name
// is its own group.
func splitName(declared string) (name, group string) {
	if i := strings.LastIndex(declared, "/"); i >= 0 {
		return declared[i+1:], declared[:i]
	}
	return declared, declared
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// stringSlice coerces a descriptor list value ([]any of strings) into a
// string slice, ignoring non-string entries.
func stringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
