package builder

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/kilnproject/kiln/pkg/imagespec"
)

type registration struct {
	name     string
	builder  Builder
	priority int
	order    int
}

// Registry maps symbolic builder names to implementations. Read-mostly: the
// CLI registers a handful of builders at startup, then every build consults
// Select.
type Registry struct {
	mu        sync.RWMutex
	byName    map[string]*registration
	nextOrder int
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*registration{}}
}

// Register adds builder under name, overwriting any previous registration
// of that name. An overwrite keeps the original registration order, so
// swapping in a different implementation does not change tie-breaking.
func (r *Registry) Register(name string, b Builder, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		existing.builder = b
		existing.priority = priority
		return
	}
	r.byName[name] = &registration{name: name, builder: b, priority: priority, order: r.nextOrder}
	r.nextOrder++
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, name)
}

// Lookup returns the builder registered under name.
func (r *Registry) Lookup(name string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return reg.builder, true
}

// Names returns the registered builder names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	regs := slices.SortedFunc(maps.Values(r.byName), func(a, b *registration) int {
		return a.order - b.order
	})
	names := make([]string, 0, len(regs))
	for _, reg := range regs {
		names = append(names, reg.name)
	}
	return names
}

// Select picks the builder for spec: the explicitly named one when the spec
// names one, otherwise the highest-priority registration whose builder
// supports the spec's requirement source. Priority ties go to the earlier
// registration.
func (r *Registry) Select(spec *imagespec.Spec) (Builder, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if spec.Builder != "" {
		reg, ok := r.byName[spec.Builder]
		if !ok {
			return nil, "", fmt.Errorf("Builder %q is not registered (registered builders: %s)",
				spec.Builder, strings.Join(r.namesLocked(), ", "))
		}
		return reg.builder, reg.name, nil
	}

	kind := spec.RequirementsKind()
	var best *registration
	for _, reg := range r.byName {
		if !reg.builder.Supports(kind) {
			continue
		}
		if best == nil || reg.priority > best.priority ||
			(reg.priority == best.priority && reg.order < best.order) {
			best = reg
		}
	}
	if best == nil {
		return nil, "", fmt.Errorf("No registered builder supports %s requirements", kind)
	}
	return best.builder, best.name, nil
}
