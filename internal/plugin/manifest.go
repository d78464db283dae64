package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ManifestFileName is the manifest filename inside a plugin directory.
const ManifestFileName = "plugin.json"

// DefaultMain is the plugin entry point when the manifest omits one.
const DefaultMain = "init.lua"

// TaskPluginPrefix joins the resolver's naming convention: the plugin
// contributing command <cmd> lives in a directory named quarry-<cmd>.
const TaskPluginPrefix = "quarry-"

// Manifest describes a plugin's metadata and contributions.
type Manifest struct {
	// Identity
	Name        string `json:"name"`        // unique identifier (e.g. "quarry-deploy")
	Version     string `json:"version"`     // semver
	Description string `json:"description"` // short description
	Author      string `json:"author"`      // author name or org

	// Entry point, relative to the plugin directory.
	Main string `json:"main"`

	// Tasks the plugin contributes.
	Tasks []TaskContribution `json:"tasks"`

	// Internal: path to the plugin directory.
	path string
}

// TaskContribution declares one command the plugin provides. The
// plugin's Lua code must define a global function with the same name.
type TaskContribution struct {
	Name      string `json:"name"`      // command name (e.g. "deploy")
	Doc       string `json:"doc"`       // one-line description for help
	Args      string `json:"args"`      // argument spec (e.g. "<target>")
	NoProject bool   `json:"noProject"` // task runs without a project context
}

// namePattern restricts plugin names to filesystem- and
// convention-friendly identifiers.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// LoadManifest reads and validates the manifest in the plugin directory.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	m.path = dir
	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest invariants.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidManifest)
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: name %q", ErrInvalidManifest, m.Name)
	}
	if m.Version == "" {
		return fmt.Errorf("%w: %s missing version", ErrInvalidManifest, m.Name)
	}

	seen := make(map[string]bool, len(m.Tasks))
	for _, t := range m.Tasks {
		if t.Name == "" {
			return fmt.Errorf("%w: %s declares an unnamed task", ErrInvalidManifest, m.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: %s declares task %q twice", ErrInvalidManifest, m.Name, t.Name)
		}
		seen[t.Name] = true
	}

	return nil
}

// Path returns the plugin directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the absolute path of the plugin entry point.
func (m *Manifest) MainPath() string {
	main := m.Main
	if main == "" {
		main = DefaultMain
	}
	return filepath.Join(m.path, main)
}

// Task returns the contribution for the named command, if declared.
func (m *Manifest) Task(name string) (TaskContribution, bool) {
	for _, t := range m.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskContribution{}, false
}
