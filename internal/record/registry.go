package record

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps type names to descriptors. Lookups may run concurrently with
// each other and with registration.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Descriptor)}
}

// Register adds d and every struct descriptor it references. Registering the
// same descriptor twice is a no-op; a different descriptor under a taken name
// fails with ErrDuplicate.
func (r *Registry) Register(d *Descriptor) error {
	all := append([]*Descriptor{d}, d.Structs()...)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, desc := range all {
		if prev, ok := r.types[desc.name]; ok && prev != desc {
			return fmt.Errorf("%w: %s", ErrDuplicate, desc.name)
		}
	}
	for _, desc := range all {
		r.types[desc.name] = desc
	}
	return nil
}

func (r *Registry) MustRegister(ds ...*Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[name]
	return d, ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Merge registers every descriptor of other into r.
func (r *Registry) Merge(other *Registry) error {
	for _, name := range other.Names() {
		d, _ := other.Lookup(name)
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
