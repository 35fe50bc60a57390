package resolver

import (
	"fmt"

	"github.com/asakaida/mdschema/internal/entities"
)

// DefaultRegistry maps a short logical key (e.g., "wf") to the storage
// collection currently treated as the default for it. Several collections
// may encode the same concept (wf_TimeSeries, wf_Seismogram); the registry
// selects the one used when a caller does not disambiguate.
type DefaultRegistry struct {
	designations map[string]string
	exists       func(collection string) bool
}

func newDefaultRegistry(exists func(string) bool) *DefaultRegistry {
	return &DefaultRegistry{
		designations: make(map[string]string),
		exists:       exists,
	}
}

// Name returns the collection designated for key. Without a designation a
// key that is itself a collection name resolves to that collection.
func (r *DefaultRegistry) Name(key string) (string, error) {
	if name, ok := r.designations[key]; ok {
		if !r.exists(name) {
			return "", fmt.Errorf("%w: default %s of %s is no longer a defined collection", entities.ErrLookup, name, key)
		}
		return name, nil
	}
	if r.exists(key) {
		return key, nil
	}
	return "", fmt.Errorf("%w: %s has no default defined", entities.ErrLookup, key)
}

// Set designates collection as the default for key.
// An empty key is inferred from the collection name.
func (r *DefaultRegistry) Set(collection, key string) error {
	if !r.exists(collection) {
		return fmt.Errorf("%w: %s is not a defined collection", entities.ErrLookup, collection)
	}
	if key == "" {
		key = inferDefaultKey(collection)
	}
	r.designations[key] = collection
	return nil
}

// Unset removes the designation for key. It is a no-op for unknown keys.
func (r *DefaultRegistry) Unset(key string) {
	delete(r.designations, key)
}

// Designations returns a copy of all explicit designations
func (r *DefaultRegistry) Designations() map[string]string {
	out := make(map[string]string, len(r.designations))
	for k, v := range r.designations {
		out[k] = v
	}
	return out
}
