package resolver

import (
	"fmt"
	"strings"

	"github.com/asakaida/mdschema/internal/entities"
)

// StorageCatalogue is the resolved catalogue of one storage collection
type StorageCatalogue struct {
	*Catalogue
}

// Reference returns the collection an attribute points to.
// Attributes without a declared reference belong to the collection itself.
func (c *StorageCatalogue) Reference(name string) (string, error) {
	d, err := c.lookup(name)
	if err != nil {
		return "", err
	}
	if d.Reference == "" {
		return c.name, nil
	}
	return d.Reference, nil
}

// StorageSchema holds one catalogue per storage collection and the
// default-collection designations.
type StorageSchema struct {
	collections map[string]*StorageCatalogue
	defaults    *DefaultRegistry
}

// NewStorageSchema resolves the Database namespace of a definition.
// Inheritance is applied first, then every attribute carrying a reference is
// enriched from the referenced collection.
func NewStorageSchema(def *entities.Definition) (*StorageSchema, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: definition is nil", entities.ErrConfiguration)
	}

	refs := newReferenceResolver(def.Database)
	chain := newChainResolver(entities.NamespaceDatabase, def.Database, refs.enrich)
	catalogues, err := chain.resolveAll()
	if err != nil {
		return nil, err
	}

	s := &StorageSchema{
		collections: make(map[string]*StorageCatalogue, len(catalogues)),
	}
	for name, c := range catalogues {
		s.collections[name] = &StorageCatalogue{Catalogue: c}
	}
	s.defaults = newDefaultRegistry(s.Has)

	for _, name := range sortedKeys(def.Database) {
		key := def.Database[name].Default
		if key == "" {
			continue
		}
		if other, ok := s.defaults.designations[key]; ok {
			return nil, fmt.Errorf("%w: both %s and %s declare themselves default for %s",
				entities.ErrConfiguration, other, name, key)
		}
		s.defaults.designations[key] = name
	}

	return s, nil
}

// Collection returns the catalogue of a storage collection
func (s *StorageSchema) Collection(name string) (*StorageCatalogue, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: the schema of %s is not defined", entities.ErrLookup, name)
	}
	return c, nil
}

// Has reports whether a storage collection is defined
func (s *StorageSchema) Has(name string) bool {
	_, ok := s.collections[name]
	return ok
}

// Collections returns the names of all storage collections in sorted order
func (s *StorageSchema) Collections() []string {
	return sortedKeys(s.collections)
}

// SetCollection installs or replaces the catalogue of a storage collection.
// A catalogue installed under another name is copied and renamed.
func (s *StorageSchema) SetCollection(name string, c *StorageCatalogue) error {
	if c == nil || c.Catalogue == nil {
		return fmt.Errorf("%w: catalogue for %s is nil", entities.ErrConfiguration, name)
	}
	if c.Name() != name {
		c = &StorageCatalogue{Catalogue: c.clone(name)}
	}
	s.collections[name] = c
	return nil
}

// RemoveCollection drops the catalogue of a storage collection
func (s *StorageSchema) RemoveCollection(name string) error {
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: the schema of %s is not defined", entities.ErrLookup, name)
	}
	delete(s.collections, name)
	return nil
}

// Default returns the catalogue currently designated for a logical key.
// A key that names a collection is its own default.
func (s *StorageSchema) Default(key string) (*StorageCatalogue, error) {
	name, err := s.defaults.Name(key)
	if err != nil {
		return nil, err
	}
	return s.Collection(name)
}

// DefaultName returns the name of the collection designated for a logical key
func (s *StorageSchema) DefaultName(key string) (string, error) {
	return s.defaults.Name(key)
}

// SetDefault designates collection as default for key.
// An empty key is inferred from the collection name (wf_Seismogram -> wf).
func (s *StorageSchema) SetDefault(collection, key string) error {
	return s.defaults.Set(collection, key)
}

// UnsetDefault removes a designation; unknown keys are ignored
func (s *StorageSchema) UnsetDefault(key string) {
	s.defaults.Unset(key)
}

// Defaults returns the registry of default-collection designations
func (s *StorageSchema) Defaults() *DefaultRegistry {
	return s.defaults
}

// referenceResolver computes the resolved descriptor of single storage
// attributes. It works per attribute rather than per collection because
// collections may reference each other (site.loc -> channel, channel.sta -> site).
type referenceResolver struct {
	defs     map[string]*entities.CollectionDefinition
	fields   map[string]*entities.Descriptor
	visiting map[string]bool
}

func newReferenceResolver(defs map[string]*entities.CollectionDefinition) *referenceResolver {
	return &referenceResolver{
		defs:     defs,
		fields:   make(map[string]*entities.Descriptor),
		visiting: make(map[string]bool),
	}
}

// enrich implements enrichFunc for storage collections
func (r *referenceResolver) enrich(collection, attribute string, declared *entities.Descriptor) (*entities.Descriptor, error) {
	if declared == nil || declared.Reference == "" {
		return declared.Clone(), nil
	}
	foreign, err := r.field(declared.Reference, referencedAttribute(attribute, declared.Reference))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference of %s.%s: %w", collection, attribute, err)
	}
	return declared.Overlay(foreign), nil
}

// field returns the resolved descriptor of attribute as seen by collection
func (r *referenceResolver) field(collection, attribute string) (*entities.Descriptor, error) {
	id := collection + "." + attribute
	if d, ok := r.fields[id]; ok {
		return d, nil
	}
	if r.visiting[id] {
		return nil, fmt.Errorf("%w: circular reference at %s", entities.ErrConfiguration, id)
	}

	declared, err := r.declared(collection, attribute)
	if err != nil {
		return nil, err
	}

	resolved := declared.Clone()
	if declared.Reference != "" {
		r.visiting[id] = true
		foreign, err := r.field(declared.Reference, referencedAttribute(attribute, declared.Reference))
		delete(r.visiting, id)
		if err != nil {
			return nil, err
		}
		resolved = declared.Overlay(foreign)
	}

	r.fields[id] = resolved
	return resolved, nil
}

// declared finds the descriptor of attribute in collection, then along its base chain
func (r *referenceResolver) declared(collection, attribute string) (*entities.Descriptor, error) {
	seen := make(map[string]bool)
	for name := collection; name != ""; {
		if seen[name] {
			return nil, fmt.Errorf("%w: circular base chain at %s", entities.ErrConfiguration, name)
		}
		seen[name] = true

		def, ok := r.defs[name]
		if !ok || def == nil {
			return nil, fmt.Errorf("%w: referenced collection %s is not defined", entities.ErrConfiguration, name)
		}
		if d := def.Lookup(attribute); d != nil {
			return d, nil
		}
		name = def.Base
	}
	return nil, fmt.Errorf("%w: referenced attribute %s is not defined in %s or its bases",
		entities.ErrConfiguration, attribute, collection)
}

// referencedAttribute maps <target>_id to the identity field of target
func referencedAttribute(attribute, target string) string {
	if attribute == target+"_id" {
		return entities.IdentityField
	}
	return attribute
}

// inferDefaultKey returns the prefix of a collection name before its first "_"
func inferDefaultKey(collection string) string {
	key, _, _ := strings.Cut(collection, "_")
	return key
}
