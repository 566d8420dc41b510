package processing

import (
	"reflect"
	"slices"
	"sync"

	"github.com/andreygs/gocsp/pkg/csp"
)

// Key identifies a specialized processor, either by the Go type it handles
// or by the name used in a `processor=` tag option.
type Key struct {
	Type reflect.Type
	Name string
}

// TypeKey keys a processor by type.
func TypeKey(t reflect.Type) Key { return Key{Type: t} }

// NameKey keys a processor by name.
func NameKey(name string) Key { return Key{Name: name} }

func (k Key) String() string {
	if k.Type != nil {
		return k.Type.String()
	}
	return k.Name
}

// Registrar is a thread-safe processor table.
type Registrar[P any] struct {
	mu       sync.RWMutex
	entries  map[Key]P
	onChange func()
}

// NewRegistrar creates an empty Registrar.
func NewRegistrar[P any]() *Registrar[P] {
	return &Registrar[P]{entries: make(map[Key]P)}
}

// Register adds p under k, replacing any previous processor.
func (r *Registrar[P]) Register(k Key, p P) {
	r.mu.Lock()
	r.entries[k] = p
	notify := r.onChange
	r.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Unregister removes k and reports whether it was present.
func (r *Registrar[P]) Unregister(k Key) bool {
	r.mu.Lock()
	_, ok := r.entries[k]
	delete(r.entries, k)
	notify := r.onChange
	r.mu.Unlock()

	if ok && notify != nil {
		notify()
	}
	return ok
}

// Find returns the processor registered under k.
func (r *Registrar[P]) Find(k Key) (P, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[k]
	return p, ok
}

func (r *Registrar[P]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns the registered keys sorted by their string form.
func (r *Registrar[P]) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	slices.SortFunc(keys, func(a, b Key) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		}
		return 0
	})
	return keys
}

// Provider is the read side of a Registrar.
type Provider[P any] struct {
	registrar *Registrar[P]
}

// NewProvider wraps r.
func NewProvider[P any](r *Registrar[P]) Provider[P] {
	return Provider[P]{registrar: r}
}

// Get returns the processor for k or a csp.NoSuchHandler error.
func (p Provider[P]) Get(k Key) (P, error) {
	proc, ok := p.registrar.Find(k)
	if !ok {
		var zero P
		return zero, csp.Errorf(csp.NoSuchHandler, "No specialized processor for %s", k)
	}
	return proc, nil
}
