package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/asakaida/mdschema/internal/entities"
)

// enrichFunc turns the declared descriptor of one attribute into its resolved form
type enrichFunc func(collection, attribute string, declared *entities.Descriptor) (*entities.Descriptor, error)

// chainResolver resolves every collection of one namespace, root ancestor first.
// Each collection is resolved once; a base that is reached again while it is
// still being resolved is a cycle.
type chainResolver struct {
	namespace string
	defs      map[string]*entities.CollectionDefinition
	enrich    enrichFunc
	done      map[string]*Catalogue
	visiting  map[string]bool
	path      []string
}

func newChainResolver(namespace string, defs map[string]*entities.CollectionDefinition, enrich enrichFunc) *chainResolver {
	return &chainResolver{
		namespace: namespace,
		defs:      defs,
		enrich:    enrich,
		done:      make(map[string]*Catalogue),
		visiting:  make(map[string]bool),
	}
}

// resolveAll resolves all collections in sorted order
func (r *chainResolver) resolveAll() (map[string]*Catalogue, error) {
	for _, name := range sortedKeys(r.defs) {
		if _, err := r.resolve(name); err != nil {
			return nil, err
		}
	}
	return r.done, nil
}

// resolve returns the catalogue of name: an independent copy of the resolved
// base with the collection's own attributes replacing or extending it.
func (r *chainResolver) resolve(name string) (*Catalogue, error) {
	if c, ok := r.done[name]; ok {
		return c, nil
	}
	if r.visiting[name] {
		return nil, fmt.Errorf("%w: circular base chain in %s: %s",
			entities.ErrConfiguration, r.namespace, strings.Join(append(r.path, name), " -> "))
	}
	def, ok := r.defs[name]
	if !ok || def == nil {
		return nil, fmt.Errorf("%w: %s collection %s is not defined", entities.ErrConfiguration, r.namespace, name)
	}

	r.visiting[name] = true
	r.path = append(r.path, name)
	defer func() {
		delete(r.visiting, name)
		r.path = r.path[:len(r.path)-1]
	}()

	var cat *Catalogue
	if def.Base != "" {
		if _, ok := r.defs[def.Base]; !ok {
			return nil, fmt.Errorf("%w: base %s of %s collection %s is not defined",
				entities.ErrConfiguration, def.Base, r.namespace, name)
		}
		parent, err := r.resolve(def.Base)
		if err != nil {
			return nil, err
		}
		cat = parent.clone(name)
	} else {
		cat = newCatalogue(name)
	}

	// Replacement, not merge: an override drops everything the base declared
	for _, attr := range sortedKeys(def.Schema) {
		resolved, err := r.enrich(name, attr, def.Schema[attr])
		if err != nil {
			return nil, err
		}
		cat.attrs[attr] = resolved
	}

	for _, attr := range cat.Keys() {
		if !cat.attrs[attr].HasType() {
			return nil, fmt.Errorf("%w: attribute %s of %s collection %s has no type",
				entities.ErrConfiguration, attr, r.namespace, name)
		}
	}
	if err := cat.rebuildAliases(); err != nil {
		return nil, err
	}

	r.done[name] = cat
	return cat, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
