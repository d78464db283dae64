package hook

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

// Wrapper is one hook layer around a target callable. It receives the
// next callable in the chain (another wrapper or the original target)
// and decides whether, when, and how to invoke it.
type Wrapper func(next task.Func, proj *project.Context, args []string) (int, error)

// registration pairs a wrapper with its identity, used to make
// double-registration of the same wrapper a no-op.
type registration struct {
	wrap Wrapper
	id   string
}

// Registry holds the ordered wrapper lists per target identifier.
// Targets are addressed by task name (or a dotted internal id).
type Registry struct {
	mu      sync.RWMutex
	targets map[string][]registration
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[string][]registration),
	}
}

// Add appends a wrapper to the target's registration list. Registrations
// are ordered by registration time; adding the identical wrapper function
// to the identical target again is ignored. Identity is the function
// value itself, so two distinct closures built from the same literal are
// distinct wrappers. Wrappers bridged from outside Go (plugin functions)
// should use AddNamed with a stable identity of their own.
func (r *Registry) Add(target string, w Wrapper) {
	if w == nil {
		return
	}
	r.AddNamed(target, funcID(w), w)
}

// funcID derives a stable identity from the wrapper's closure object.
// reflect.Value.Pointer is not used here: it returns the code pointer,
// which every closure of one function literal shares.
func funcID(w Wrapper) string {
	return fmt.Sprintf("go:%x", *(*uintptr)(unsafe.Pointer(&w)))
}

// AddNamed appends a wrapper under an explicit identity. A second
// registration with the same (target, id) pair is ignored.
func (r *Registry) AddNamed(target, id string, w Wrapper) {
	if w == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.targets[target] {
		if reg.id == id {
			return
		}
	}
	r.targets[target] = append(r.targets[target], registration{wrap: w, id: id})
}

// Count returns the number of wrappers registered for the target.
func (r *Registry) Count(target string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets[target])
}

// Targets returns the identifiers that currently have wrappers.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.targets))
	for t := range r.targets {
		out = append(out, t)
	}
	return out
}

// Compose folds the target's wrappers around the original callable. The
// first-registered wrapper ends up outermost: its pre-logic runs first
// and its post-logic last. The composed callable has the exact signature
// of the original; with no registrations the original is returned as-is.
func (r *Registry) Compose(target string, original task.Func) task.Func {
	r.mu.RLock()
	regs := r.targets[target]
	r.mu.RUnlock()

	if len(regs) == 0 {
		return original
	}

	composed := original
	for i := len(regs) - 1; i >= 0; i-- {
		composed = bind(regs[i].wrap, composed)
	}
	return composed
}

// bind closes a wrapper over its next callable. Kept out of Compose so
// the loop variable is captured by value.
func bind(w Wrapper, next task.Func) task.Func {
	return func(proj *project.Context, args []string) (int, error) {
		return w(next, proj, args)
	}
}
