package project

import (
	"os"
	"path/filepath"

	qlua "github.com/dshills/quarry/internal/lua"
	lua "github.com/yuin/gopher-lua"
)

// DescriptorFileName is the conventional descriptor filename.
const DescriptorFileName = "project.lua"

// DefaultCompileDir is the build-output directory created under the
// project root when the descriptor carries no compile_path override.
const DefaultCompileDir = "classes"

// declaration captures the project call chain recorded during descriptor
// evaluation.
type declaration struct {
	name    string
	version string
	config  map[string]any
}

// LoadDefault loads the descriptor from DescriptorFileName in the current
// working directory.
func LoadDefault() (*Context, error) {
	return Load(DescriptorFileName)
}

// Load evaluates the descriptor file at path and returns the constructed
// context. The returned context's root is resolved to an absolute path at
// load time, so later working-directory changes do not affect it.
func Load(path string) (*Context, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &DescriptorError{Path: path, Err: err}
	}

	if _, err := os.Stat(abs); err != nil {
		return nil, &DescriptorError{Path: abs, Err: err}
	}

	state, err := qlua.NewState()
	if err != nil {
		return nil, &DescriptorError{Path: abs, Err: err}
	}
	defer state.Close()

	var decl *declaration
	installProjectForm(state, &decl)

	if err := state.DoFile(abs); err != nil {
		return nil, &DescriptorError{Path: abs, Err: err}
	}

	if decl == nil {
		return nil, &DescriptorError{Path: abs, Err: ErrNoDeclaration}
	}
	if decl.name == "" {
		return nil, &DescriptorError{Path: abs, Err: ErrEmptyName}
	}
	if decl.version == "" {
		return nil, &DescriptorError{Path: abs, Err: ErrMissingVersion}
	}

	root := filepath.Dir(abs)
	ctx := &Context{
		version: decl.version,
		root:    root,
		values:  decl.config,
	}
	ctx.name, ctx.group = splitName(decl.name)
	ctx.dependencies = stringSlice(decl.config["dependencies"])
	ctx.hooks = stringSlice(decl.config["hooks"])
	ctx.compilePath = resolveCompilePath(decl.config, root)

	return ctx, nil
}

// installProjectForm predefines the chained project declaration form:
// project "name" "version" { ... }. Each stage records what it has seen,
// so a declaration without a trailing config table still yields a context
// with an empty configuration map.
func installProjectForm(state *qlua.State, decl **declaration) {
	bridge := qlua.NewBridge(state.LuaState())

	state.RegisterFunc("project", func(L *lua.LState) int {
		name := L.CheckString(1)
		d := &declaration{name: name, config: map[string]any{}}
		*decl = d

		L.Push(L.NewFunction(func(L *lua.LState) int {
			d.version = L.CheckString(1)

			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				if m, ok := bridge.ToGoValue(tbl).(map[string]any); ok {
					d.config = m
				}
				L.Push(tbl)
				return 1
			}))
			return 1
		}))
		return 1
	})
}

// resolveCompilePath applies the compile_path override rules: absolute
// overrides are kept verbatim, relative ones are joined to the root, and
// the default is <root>/classes.
func resolveCompilePath(config map[string]any, root string) string {
	if cp, ok := config["compile_path"].(string); ok && cp != "" {
		if filepath.IsAbs(cp) {
			return cp
		}
		return filepath.Join(root, cp)
	}
	if root == "" {
		return ""
	}
	return filepath.Join(root, DefaultCompileDir)
}
