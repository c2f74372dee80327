package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xvenuelabs/hyperarb/internal/engine"
)

// Registry is a named collection of running strategies, kept for the status
// API. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]engine.Strategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]engine.Strategy)}
}

// Register adds a strategy under its own name, replacing any previous entry.
func (r *Registry) Register(s engine.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get looks a strategy up by name.
func (r *Registry) Get(name string) (engine.Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q: not registered", name)
	}
	return s, nil
}

// List returns all registered strategy names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
