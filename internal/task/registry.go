package task

import (
	"sort"
	"sync"
)

// aliases is the fixed table of alternate command spellings. Targets must
// be resolvable canonical names and aliasing is single-hop: the table is
// consulted exactly once, before any lookup.
var aliases = map[string]string{
	"--help": "help",
	"-h":     "help",
	"-?":     "help",
}

// Canonical returns the canonical command name for a possibly aliased
// spelling.
func Canonical(command string) string {
	if target, ok := aliases[command]; ok {
		return target
	}
	return command
}

// Aliases returns a copy of the alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}

// Provider contributes task entries from an external source, typically
// plugins discovered by naming convention. Provide loads the contributor
// for the command on demand and returns every matching entry; an empty
// result means the provider has nothing for the command.
type Provider interface {
	Provide(command string) ([]*Entry, error)
}

// Registry resolves command names to task entries. Builtins are
// registered during startup; a Provider is consulted for everything else.
// Registration happens in the single-threaded loading phase, but the
// registry is safe for concurrent reads.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]*Entry
	provider Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builtins: make(map[string]*Entry),
	}
}

// SetProvider installs the plugin-backed entry provider.
func (r *Registry) SetProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = p
}

// Register adds a builtin entry.
func (r *Registry) Register(e *Entry) error {
	if e == nil || e.Run == nil {
		return ErrNilRun
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builtins[e.Name]; exists {
		return ErrDuplicateEntry
	}
	r.builtins[e.Name] = e
	return nil
}

// Resolve turns a command string into a task entry. Alias substitution is
// applied once before lookup. A command found both as a builtin and from
// a provider, or from two providers, yields an AmbiguousError; a command
// found nowhere yields a NotFoundError.
func (r *Registry) Resolve(command string) (*Entry, error) {
	name := Canonical(command)

	r.mu.RLock()
	builtin := r.builtins[name]
	provider := r.provider
	r.mu.RUnlock()

	var matches []*Entry
	if builtin != nil {
		matches = append(matches, builtin)
	}

	if provider != nil {
		contributed, err := provider.Provide(name)
		if err != nil {
			return nil, err
		}
		matches = append(matches, contributed...)
	}

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Command: name}
	case 1:
		return matches[0], nil
	default:
		providers := make([]string, len(matches))
		for i, m := range matches {
			providers[i] = m.Provider
		}
		return nil, &AmbiguousError{Command: name, Providers: providers}
	}
}

// Builtins returns the registered builtin entries sorted by name.
func (r *Registry) Builtins() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.builtins))
	for _, e := range r.builtins {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
