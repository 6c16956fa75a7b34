package scenarios

import (
	"fmt"
	"sync"

	"bitcoin-abm/src/models"
)

// Registry holds the scenario catalog. Lookups hand out copies so a
// caller can never mutate a registered preset through the returned
// value.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]models.MScenario
	order []string
}

// -----------------------------------------------------------------------------

// NewRegistry creates a registry pre-loaded with the built-in catalog.
func NewRegistry() *Registry {
	r := &Registry{
		byID: make(map[string]models.MScenario),
	}
	for _, s := range builtinScenarios {
		// Built-in IDs are unique by construction
		_ = r.Register(s)
	}
	return r
}

// -----------------------------------------------------------------------------

// Register adds a scenario to the catalog. IDs are unique; re-registering
// an existing ID is an error rather than a silent overwrite.
func (r *Registry) Register(s models.MScenario) error {
	if s.ID == "" {
		return fmt.Errorf("scenario has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; exists {
		return fmt.Errorf("scenario %q already registered", s.ID)
	}

	s.Params = s.Params.Clone()
	r.byID[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

// -----------------------------------------------------------------------------

// Get returns the scenario with the given ID, or false when unknown.
func (r *Registry) Get(id string) (models.MScenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return models.MScenario{}, false
	}

	s.Params = s.Params.Clone()
	return s, true
}

// -----------------------------------------------------------------------------

// List returns all scenarios in registration order, baseline first.
func (r *Registry) List() []models.MScenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.MScenario, 0, len(r.order))
	for _, id := range r.order {
		s := r.byID[id]
		s.Params = s.Params.Clone()
		result = append(result, s)
	}
	return result
}

// -----------------------------------------------------------------------------

// Exists reports whether the given scenario ID is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[id]
	return ok
}
