// Package ranker defines the base ranking model abstraction. Each of the
// four base rankers scores a race field independently; the ensemble layer
// combines their outputs.
package ranker

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourusername/equine-oracle/internal/models"
)

// Scorer scores every horse in a race for one base model.
type Scorer interface {
	// Name returns the canonical model name.
	Name() string
	// Score produces one RankerScore per horse. Implementations must not
	// reorder the input field.
	Score(ctx context.Context, raceID string, horses []models.FeatureVector) ([]models.RankerScore, error)
}

// Registry holds the active base rankers in registration order.
type Registry struct {
	mu      sync.RWMutex
	scorers map[string]Scorer
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scorers: make(map[string]Scorer)}
}

// Register adds a scorer. Registering the same name twice is an error.
func (r *Registry) Register(s Scorer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.scorers[name]; exists {
		return fmt.Errorf("ranker %q already registered", name)
	}
	r.scorers[name] = s
	r.order = append(r.order, name)
	return nil
}

// Get returns the scorer for a model name.
func (r *Registry) Get(name string) (Scorer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scorers[name]
	return s, ok
}

// All returns the registered scorers in registration order.
func (r *Registry) All() []Scorer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Scorer, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.scorers[name])
	}
	return out
}

// Names returns the registered model names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
