package resolver

import (
	"fmt"
	"sort"

	"github.com/asakaida/mdschema/internal/entities"
)

// Catalogue holds the resolved attributes of one collection and the reverse
// alias map. Names and aliases are unique within a catalogue only.
// A Catalogue is not safe for concurrent mutation; callers serialize writes.
type Catalogue struct {
	name    string
	attrs   map[string]*entities.Descriptor // canonical name -> descriptor
	aliases map[string]string               // alias -> canonical name
}

func newCatalogue(name string) *Catalogue {
	return &Catalogue{
		name:    name,
		attrs:   make(map[string]*entities.Descriptor),
		aliases: make(map[string]string),
	}
}

// clone returns an independent copy carrying a new collection name
func (c *Catalogue) clone(name string) *Catalogue {
	cp := newCatalogue(name)
	for k, d := range c.attrs {
		cp.attrs[k] = d.Clone()
	}
	for a, k := range c.aliases {
		cp.aliases[a] = k
	}
	return cp
}

// Name returns the collection name the catalogue belongs to
func (c *Catalogue) Name() string {
	return c.name
}

// Keys returns all canonical attribute names in sorted order
func (c *Catalogue) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of canonical attributes
func (c *Catalogue) Len() int {
	return len(c.attrs)
}

// Descriptor returns a copy of the resolved descriptor of name or one of its aliases
func (c *Catalogue) Descriptor(name string) (*entities.Descriptor, error) {
	d, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	return d.Clone(), nil
}

// Type returns the normalized type of an attribute
func (c *Catalogue) Type(name string) (entities.AttributeType, error) {
	d, err := c.lookup(name)
	if err != nil {
		return entities.TypeUnknown, err
	}
	return d.AttributeType(), nil
}

// IsDefined reports whether name is a canonical name or a registered alias
func (c *Catalogue) IsDefined(name string) bool {
	if _, ok := c.attrs[name]; ok {
		return true
	}
	_, ok := c.aliases[name]
	return ok
}

// IsAlias reports whether name is a registered alias
func (c *Catalogue) IsAlias(name string) bool {
	_, ok := c.aliases[name]
	return ok
}

// UniqueName resolves an alias to its canonical name.
// A canonical name is returned unchanged.
func (c *Catalogue) UniqueName(name string) (string, error) {
	if _, ok := c.attrs[name]; ok {
		return name, nil
	}
	if k, ok := c.aliases[name]; ok {
		return k, nil
	}
	return "", c.notDefined(name)
}

// Aliases returns the aliases declared for an attribute, nil if none
func (c *Catalogue) Aliases(name string) ([]string, error) {
	d, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	if len(d.Aliases) == 0 {
		return nil, nil
	}
	return append([]string(nil), d.Aliases...), nil
}

// HasAlias reports whether name is a canonical name owning at least one alias
func (c *Catalogue) HasAlias(name string) bool {
	d, ok := c.attrs[name]
	return ok && len(d.Aliases) > 0
}

// IsOptional reports whether an attribute may be absent from a record
func (c *Catalogue) IsOptional(name string) (bool, error) {
	d, err := c.lookup(name)
	if err != nil {
		return false, err
	}
	return d.Optional != nil && *d.Optional, nil
}

// Concept returns the description of an attribute.
// A missing description is a complaint, not a lookup failure.
func (c *Catalogue) Concept(name string) (string, error) {
	d, err := c.lookup(name)
	if err != nil {
		return "", err
	}
	if d.Concept == "" {
		return "", fmt.Errorf("%w: concept is not defined for %s", entities.ErrComplaint, name)
	}
	return d.Concept, nil
}

// Add inserts or silently replaces a canonical attribute and registers its aliases
func (c *Catalogue) Add(name string, d *entities.Descriptor) error {
	if !d.HasType() {
		return fmt.Errorf("%w: type is not defined for the new attribute %s", entities.ErrConfiguration, name)
	}
	return c.put(name, d.Clone())
}

// AddAlias appends an alias to an existing canonical attribute
func (c *Catalogue) AddAlias(name, alias string) error {
	d, ok := c.attrs[name]
	if !ok {
		return c.notDefined(name)
	}
	if alias == name {
		return nil
	}
	if err := c.checkAlias(name, alias); err != nil {
		return err
	}
	if _, ok := c.aliases[alias]; !ok {
		d.Aliases = append(d.Aliases, alias)
	}
	c.aliases[alias] = name
	return nil
}

// ClearAliases rewrites every alias key of record to its canonical name.
// When the canonical key is already present the alias entries are dropped and
// the canonical value is kept. Among several aliases of one attribute the
// first in declaration order wins.
func (c *Catalogue) ClearAliases(record map[string]interface{}) {
	present := make(map[string]bool)
	for key := range record {
		if canonical, ok := c.aliases[key]; ok {
			present[canonical] = true
		}
	}

	for canonical := range present {
		_, keep := record[canonical]
		for _, alias := range c.attrs[canonical].Aliases {
			value, ok := record[alias]
			if !ok || c.aliases[alias] != canonical {
				continue
			}
			delete(record, alias)
			if !keep {
				record[canonical] = value
				keep = true
			}
		}
	}
}

// put stores d under name, dropping the alias entries of any replaced descriptor.
// Nothing is modified when an alias of d conflicts with the catalogue.
func (c *Catalogue) put(name string, d *entities.Descriptor) error {
	if owner, ok := c.aliases[name]; ok {
		return fmt.Errorf("%w: %s in %s is already an alias of %s", entities.ErrConfiguration, name, c.name, owner)
	}
	d.Aliases = withoutSelf(name, d.Aliases)
	for _, a := range d.Aliases {
		if err := c.checkAlias(name, a); err != nil {
			return err
		}
	}
	if old, ok := c.attrs[name]; ok {
		for _, a := range old.Aliases {
			if c.aliases[a] == name {
				delete(c.aliases, a)
			}
		}
	}
	c.attrs[name] = d
	for _, a := range d.Aliases {
		c.aliases[a] = name
	}
	return nil
}

// rebuildAliases recomputes the reverse alias map from the descriptors.
// Attributes are visited in sorted order so conflicts are reported deterministically.
func (c *Catalogue) rebuildAliases() error {
	c.aliases = make(map[string]string)
	for _, name := range c.Keys() {
		d := c.attrs[name]
		d.Aliases = withoutSelf(name, d.Aliases)
		for _, a := range d.Aliases {
			if err := c.checkAlias(name, a); err != nil {
				return err
			}
			c.aliases[a] = name
		}
	}
	return nil
}

// withoutSelf drops aliases equal to the canonical name
func withoutSelf(name string, aliases []string) []string {
	if aliases == nil {
		return nil
	}
	kept := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a != name {
			kept = append(kept, a)
		}
	}
	return kept
}

// checkAlias enforces that alias names no other attribute of the catalogue
func (c *Catalogue) checkAlias(name, alias string) error {
	if _, ok := c.attrs[alias]; ok {
		return fmt.Errorf("%w: alias %s of %s in %s is a defined attribute", entities.ErrConfiguration, alias, name, c.name)
	}
	if owner, ok := c.aliases[alias]; ok && owner != name {
		return fmt.Errorf("%w: alias %s of %s in %s is already an alias of %s", entities.ErrConfiguration, alias, name, c.name, owner)
	}
	return nil
}

// lookup returns the stored descriptor of a canonical name or alias
func (c *Catalogue) lookup(name string) (*entities.Descriptor, error) {
	key, err := c.UniqueName(name)
	if err != nil {
		return nil, err
	}
	return c.attrs[key], nil
}

func (c *Catalogue) notDefined(name string) error {
	return fmt.Errorf("%w: %s is not defined in %s", entities.ErrLookup, name, c.name)
}
