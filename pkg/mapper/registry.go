package mapper

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// Registry maps keys to mappers. Lookups are exact on the key identity.
type Registry struct {
	mu      sync.RWMutex
	mappers map[domain.KeyID]Erased
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mappers: make(map[domain.KeyID]Erased),
	}
}

// NewDefaultRegistry creates a registry pre-populated with the built-in mappers.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	RegisterDefaults(reg)
	return reg
}

// Register adds a typed mapper under key.
// If a mapper with the same key exists, it is overwritten.
func Register[T any](reg *Registry, key domain.Key[T], m Mapper[T]) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.mappers[key.ID()] = Erase(m)
}

// RegisterErased adds an already erased mapper. The mapper must produce
// values of the key's type.
func (r *Registry) RegisterErased(id domain.KeyID, m Erased) error {
	if id.Type != m.Type() {
		return fmt.Errorf("mapper produces %s, key %s expects %s", m.Type(), id, id.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappers[id] = m
	return nil
}

// Lookup returns the mapper registered under id.
func (r *Registry) Lookup(id domain.KeyID) (Erased, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappers[id]
	return m, ok
}

// Keys lists the registered keys sorted by their string form.
func (r *Registry) Keys() []domain.KeyID {
	r.mu.RLock()
	keys := make([]domain.KeyID, 0, len(r.mappers))
	for k := range r.mappers {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
