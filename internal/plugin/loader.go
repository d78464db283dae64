package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Loader locates plugins on the filesystem.
type Loader struct {
	// Search paths, checked in order.
	paths []string
}

// Info describes a discovered plugin before it is loaded.
type Info struct {
	Name     string
	Path     string
	Manifest *Manifest
	Err      error // manifest read/validation failure, if any
}

// NewLoader creates a loader over the given search paths.
func NewLoader(paths ...string) *Loader {
	return &Loader{paths: paths}
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return append([]string(nil), l.paths...)
}

// Find locates the named plugin. The first search path containing a
// directory with that name wins; later paths are shadowed, which lets a
// project-local plugin override a user-level install of the same plugin.
// Returns ErrPluginNotFound when no path has it.
func (l *Loader) Find(name string) (*Info, error) {
	for _, base := range l.paths {
		dir := filepath.Join(base, name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		manifest, err := LoadManifest(dir)
		if err != nil {
			return nil, fmt.Errorf("plugin %s at %s: %w", name, dir, err)
		}
		return &Info{Name: manifest.Name, Path: dir, Manifest: manifest}, nil
	}

	return nil, fmt.Errorf("%q: %w", name, ErrPluginNotFound)
}

// Discover returns every plugin found in the search paths, sorted by
// name. A plugin name appearing in more than one path is reported once,
// from the first path (shadowing). Manifest failures are carried in the
// Info rather than aborting discovery.
func (l *Loader) Discover() []*Info {
	found := make(map[string]*Info)

	for _, base := range l.paths {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue // missing search paths are not errors
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if _, exists := found[name]; exists {
				continue
			}

			dir := filepath.Join(base, name)
			info := &Info{Name: name, Path: dir}
			if manifest, err := LoadManifest(dir); err != nil {
				info.Err = err
			} else {
				info.Manifest = manifest
			}
			found[name] = info
		}
	}

	infos := make([]*Info, 0, len(found))
	for _, info := range found {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
