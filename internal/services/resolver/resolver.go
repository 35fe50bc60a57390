// Package resolver materializes attribute catalogues from a schema definition.
//
// Storage collections are resolved first (inheritance, then references);
// views are resolved against the resulting storage catalogues. Construction
// is eager and all-or-nothing. Catalogues are shared mutable state after
// construction: callers that mutate them from several goroutines must
// serialize those calls.
package resolver

import (
	"fmt"

	"github.com/asakaida/mdschema/internal/entities"
)

// Schema is the resolved form of a definition
type Schema struct {
	Storage *StorageSchema
	Views   *ViewSchema
}

// Resolve builds the storage and view schemas of a definition
func Resolve(def *entities.Definition) (*Schema, error) {
	storage, err := NewStorageSchema(def)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", entities.NamespaceDatabase, err)
	}
	views, err := NewViewSchema(def, storage)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", entities.NamespaceMetadata, err)
	}
	return &Schema{Storage: storage, Views: views}, nil
}
