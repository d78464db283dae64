package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/quarry/internal/project"
)

// LibsDir is the directory under the project root where bare dependency
// names are resolved: a dependency "inspect" maps to <root>/libs/inspect.
const LibsDir = "libs"

// SourceDir is the project source directory added to the module path
// when it exists.
const SourceDir = "src"

// modulePaths resolves the context's dependency entries into the module
// search roots of the isolated environment. A dependency is either a
// directory path (absolute, or relative to the project root) or a bare
// name looked up under <root>/libs. Every entry must name an existing
// directory; anything else is a setup failure, reported before any code
// is evaluated.
func modulePaths(proj *project.Context) ([]string, error) {
	var paths []string

	for _, dep := range proj.Dependencies() {
		if strings.TrimSpace(dep) == "" {
			return nil, &SetupError{Dep: dep, Err: ErrEmptyDependency}
		}

		dir := dep
		switch {
		case filepath.IsAbs(dep):
			// keep verbatim
		case strings.ContainsRune(dep, os.PathSeparator):
			dir = filepath.Join(proj.Root(), dep)
		default:
			dir = filepath.Join(proj.Root(), LibsDir, dep)
		}

		info, err := os.Stat(dir)
		if err != nil {
			return nil, &SetupError{Dep: dep, Err: err}
		}
		if !info.IsDir() {
			return nil, &SetupError{Dep: dep, Err: fmt.Errorf("%s is not a directory", dir)}
		}
		paths = append(paths, dir)
	}

	// The project's own sources participate when present; their absence
	// is not an error (synthetic contexts have no root at all).
	if root := proj.Root(); root != "" {
		src := filepath.Join(root, SourceDir)
		if info, err := os.Stat(src); err == nil && info.IsDir() {
			paths = append(paths, src)
		}
	}

	return paths, nil
}
