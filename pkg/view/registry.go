// Package view holds the registry of views a host application supplies to
// the router. Views are opaque: the registry only maps names to handles.
package view

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vango-dev/evalboard/pkg/router"
)

// Registry maps view names to view handles.
type Registry struct {
	mu    sync.RWMutex
	views map[string]router.ViewRef
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string]router.ViewRef)}
}

// Register adds a view under name. Names must be unique and views non-nil.
func (r *Registry) Register(name string, v router.ViewRef) error {
	if name == "" {
		return fmt.Errorf("view: empty name")
	}
	if v == nil {
		return fmt.Errorf("view: %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[name]; exists {
		return fmt.Errorf("view: %q already registered", name)
	}
	r.views[name] = v
	r.order = append(r.order, name)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, v router.ViewRef) *Registry {
	if err := r.Register(name, v); err != nil {
		panic(err)
	}
	return r
}

// Get returns the view registered under name.
func (r *Registry) Get(name string) (router.ViewRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[name]
	return v, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// NameOf returns the name a view was registered under.
// Views that are not comparable are never found.
func (r *Registry) NameOf(v router.ViewRef) (string, bool) {
	if v == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if sameView(r.views[name], v) {
			return name, true
		}
	}
	return "", false
}

func sameView(a, b router.ViewRef) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
