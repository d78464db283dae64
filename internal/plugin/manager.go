package plugin

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/quarry/internal/hook"
	"github.com/dshills/quarry/internal/task"
)

// Manager owns the loaded plugins and bridges their contributions into
// the task and hook registries. It implements task.Provider.
type Manager struct {
	mu sync.RWMutex

	loader *Loader
	hooks  *hook.Registry

	hosts     map[string]*Host
	loadOrder []string
}

// NewManager creates a plugin manager.
func NewManager(loader *Loader, hooks *hook.Registry) *Manager {
	return &Manager{
		loader: loader,
		hooks:  hooks,
		hosts:  make(map[string]*Host),
	}
}

// Load loads and activates the named plugin, once. Loading runs the
// plugin's top-level code; activation invokes its activate() routine if
// it defines one.
func (m *Manager) Load(ctx context.Context, name string) (*Host, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if host, ok := m.hosts[name]; ok {
		if host.State() == StateError {
			return nil, host.Error()
		}
		return host, nil
	}

	info, err := m.loader.Find(name)
	if err != nil {
		return nil, err
	}

	host, err := NewHost(info.Manifest, m.hooks)
	if err != nil {
		return nil, err
	}

	if err := host.Load(ctx); err != nil {
		return nil, err
	}
	if err := host.Activate(ctx); err != nil {
		return nil, err
	}

	m.hosts[name] = host
	m.loadOrder = append(m.loadOrder, name)
	return host, nil
}

// Get returns a loaded plugin by name, or nil.
func (m *Manager) Get(name string) *Host {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hosts[name]
}

// Loaded returns the loaded plugins in load order.
func (m *Manager) Loaded() []*Host {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Host, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		out = append(out, m.hosts[name])
	}
	return out
}

// ActivateHooks loads the hook plugins named by the project descriptor.
// Each failure is wrapped in a *HookLoadError; the first one is returned
// and the remaining names are still attempted, so a broken hook does not
// hide later ones. The caller decides whether the error is fatal.
func (m *Manager) ActivateHooks(ctx context.Context, names []string) error {
	var firstErr error
	for _, name := range names {
		if _, err := m.Load(ctx, name); err != nil {
			if firstErr == nil {
				firstErr = &HookLoadError{Plugin: name, Err: err}
			}
		}
	}
	return firstErr
}

// Provide implements task.Provider: it loads the conventional
// quarry-<command> plugin on demand, then collects every contribution
// for the command from the loaded plugins. More than one match is an
// ambiguity the registry reports; none means not found.
func (m *Manager) Provide(command string) ([]*task.Entry, error) {
	if _, err := m.Load(context.Background(), TaskPluginPrefix+command); err != nil {
		// Absence is the common case; anything else (corrupt manifest,
		// broken plugin code) must surface rather than masquerade as an
		// unknown command.
		if !errors.Is(err, ErrPluginNotFound) {
			return nil, err
		}
	}

	var entries []*task.Entry
	for _, host := range m.Loaded() {
		if !host.State().IsUsable() {
			continue
		}
		contribution, ok := host.Manifest().Task(command)
		if !ok {
			continue
		}
		entries = append(entries, &task.Entry{
			Name:         contribution.Name,
			Doc:          contribution.Doc,
			ArgSpec:      contribution.Args,
			NeedsProject: !contribution.NoProject,
			Provider:     host.Name(),
			Run:          host.TaskFunc(contribution),
		})
	}
	return entries, nil
}

// Shutdown unloads every plugin. Best-effort: never panics.
func (m *Manager) Shutdown(ctx context.Context) {
	defer func() {
		_ = recover()
	}()

	m.mu.Lock()
	hosts := make([]*Host, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		hosts = append(hosts, m.hosts[name])
	}
	m.hosts = make(map[string]*Host)
	m.loadOrder = nil
	m.mu.Unlock()

	for _, host := range hosts {
		_ = host.Unload(ctx)
	}
}
