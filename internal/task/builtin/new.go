package builtin

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

//go:embed templates
var templateFS embed.FS

// defaultNewVersion seeds the descriptor of a freshly generated project.
const defaultNewVersion = "0.1.0"

// templateManifest describes one project template: a list of files to
// materialize with {{name}}, {{group}} and {{version}} placeholders
// substituted.
type templateManifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Files       []struct {
		Path    string `yaml:"path"`
		Content string `yaml:"content"`
	} `yaml:"files"`
}

func newEntry(svc *Services) *task.Entry {
	e := task.NewEntry("new", "Generate a new project from a template", "<name> [dir]", func(proj *project.Context, args []string) (int, error) {
		return runNew(svc, args)
	})
	e.NeedsProject = false
	return e
}

func runNew(svc *Services, args []string) (int, error) {
	if len(args) == 0 {
		return 1, fmt.Errorf("new: missing project name")
	}

	full := args[0]
	name, group := splitProjectName(full)

	dir := name
	if len(args) > 1 {
		dir = args[1]
	}

	if _, err := os.Stat(filepath.Join(dir, project.DescriptorFileName)); err == nil {
		return 1, fmt.Errorf("new: %s already contains a %s", dir, project.DescriptorFileName)
	}

	manifest, err := loadTemplate("default")
	if err != nil {
		return 1, err
	}

	subst := strings.NewReplacer(
		"{{name}}", name,
		"{{group}}", group,
		"{{version}}", defaultNewVersion,
	)

	for _, f := range manifest.Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return 1, fmt.Errorf("new: %w", err)
		}
		if err := os.WriteFile(path, []byte(subst.Replace(f.Content)), 0o644); err != nil {
			return 1, fmt.Errorf("new: %w", err)
		}
	}

	fmt.Fprintf(svc.Out, "Generated %s in %s\n", full, dir)
	return 0, nil
}

func loadTemplate(name string) (*templateManifest, error) {
	data, err := templateFS.ReadFile("templates/" + name + "/template.yaml")
	if err != nil {
		return nil, fmt.Errorf("new: unknown template %q: %w", name, err)
	}

	var m templateManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("new: template %q: %w", name, err)
	}
	return &m, nil
}

// splitProjectName splits "group/name" into its parts; a bare name is
// its own group, mirroring the descriptor default.
func splitProjectName(full string) (name, group string) {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		return full[i+1:], full[:i]
	}
	return full, full
}
