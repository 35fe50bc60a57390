package resolver

import (
	"fmt"
	"strings"

	"github.com/asakaida/mdschema/internal/entities"
)

// ViewCatalogue is the resolved catalogue of one view (record kind)
type ViewCatalogue struct {
	*Catalogue
}

// Collection returns the storage collection an attribute is sourced from,
// or an empty string when none is declared.
func (c *ViewCatalogue) Collection(name string) (string, error) {
	d, err := c.lookup(name)
	if err != nil {
		return "", err
	}
	return d.Collection, nil
}

// Readonly reports whether an attribute is locked; undeclared means readonly
func (c *ViewCatalogue) Readonly(name string) (bool, error) {
	d, err := c.lookup(name)
	if err != nil {
		return false, err
	}
	return d.Readonly == nil || *d.Readonly, nil
}

// Writeable is the inverse of Readonly
func (c *ViewCatalogue) Writeable(name string) (bool, error) {
	ro, err := c.Readonly(name)
	if err != nil {
		return false, err
	}
	return !ro, nil
}

// SetReadonly locks an attribute so it is never saved
func (c *ViewCatalogue) SetReadonly(name string) error {
	return c.setReadonly(name, true)
}

// SetWriteable unlocks an attribute. Use with caution: readonly attributes
// usually mirror data owned by another collection.
func (c *ViewCatalogue) SetWriteable(name string) error {
	return c.setReadonly(name, false)
}

func (c *ViewCatalogue) setReadonly(name string, v bool) error {
	d, err := c.lookup(name)
	if err != nil {
		return err
	}
	d.Readonly = entities.Bool(v)
	return nil
}

// ViewSchema holds one catalogue per view
type ViewSchema struct {
	views map[string]*ViewCatalogue
}

// NewViewSchema resolves the Metadata namespace of a definition against an
// already resolved storage schema. Inheritance is applied first, then every
// attribute carrying a collection is enriched from that storage catalogue.
func NewViewSchema(def *entities.Definition, storage *StorageSchema) (*ViewSchema, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: definition is nil", entities.ErrConfiguration)
	}
	if storage == nil {
		return nil, fmt.Errorf("%w: storage schema is nil", entities.ErrConfiguration)
	}

	lookup := &collectionLookup{storage: storage}
	chain := newChainResolver(entities.NamespaceMetadata, def.Metadata, lookup.enrich)
	catalogues, err := chain.resolveAll()
	if err != nil {
		return nil, err
	}

	v := &ViewSchema{
		views: make(map[string]*ViewCatalogue, len(catalogues)),
	}
	for name, c := range catalogues {
		v.views[name] = &ViewCatalogue{Catalogue: c}
	}
	return v, nil
}

// View returns the catalogue of a view
func (v *ViewSchema) View(name string) (*ViewCatalogue, error) {
	c, ok := v.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: the schema of %s is not defined", entities.ErrLookup, name)
	}
	return c, nil
}

// Has reports whether a view is defined
func (v *ViewSchema) Has(name string) bool {
	_, ok := v.views[name]
	return ok
}

// Views returns the names of all views in sorted order
func (v *ViewSchema) Views() []string {
	return sortedKeys(v.views)
}

// SetView installs or replaces the catalogue of a view.
// A catalogue installed under another name is copied and renamed.
func (v *ViewSchema) SetView(name string, c *ViewCatalogue) error {
	if c == nil || c.Catalogue == nil {
		return fmt.Errorf("%w: catalogue for %s is nil", entities.ErrConfiguration, name)
	}
	if c.Name() != name {
		c = &ViewCatalogue{Catalogue: c.clone(name)}
	}
	v.views[name] = c
	return nil
}

// RemoveView drops the catalogue of a view
func (v *ViewSchema) RemoveView(name string) error {
	if _, ok := v.views[name]; !ok {
		return fmt.Errorf("%w: the schema of %s is not defined", entities.ErrLookup, name)
	}
	delete(v.views, name)
	return nil
}

// collectionLookup enriches view attributes from resolved storage catalogues
type collectionLookup struct {
	storage *StorageSchema
}

// enrich implements enrichFunc for views. A view attribute named
// <collection>_<attr> is looked up as <attr> in that collection
// (channel_lat -> channel.lat).
func (l *collectionLookup) enrich(view, attribute string, declared *entities.Descriptor) (*entities.Descriptor, error) {
	if declared == nil || declared.Collection == "" {
		return declared.Clone(), nil
	}

	source, err := l.storage.Collection(declared.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %s of view %s is sourced from %s: %v",
			entities.ErrConfiguration, attribute, view, declared.Collection, err)
	}
	foreign, err := source.Descriptor(strings.TrimPrefix(attribute, declared.Collection+"_"))
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %s of view %s: %v", entities.ErrConfiguration, attribute, view, err)
	}
	return declared.Overlay(foreign), nil
}
