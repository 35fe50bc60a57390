package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/asakaida/mdschema/internal/entities"
)

// Validator checks a decoded document against the structural contract the
// resolver relies on. Unknown keys are ignored.
type Validator struct {
	doc     map[string]interface{}
	errors  []string
	storage map[string]map[string]interface{}
	views   map[string]map[string]interface{}
}

// NewValidator creates a new Validator
func NewValidator(doc map[string]interface{}) *Validator {
	return &Validator{
		doc:     doc,
		errors:  []string{},
		storage: make(map[string]map[string]interface{}),
		views:   make(map[string]map[string]interface{}),
	}
}

// Validate validates the document and returns an error listing every problem
func (v *Validator) Validate() error {
	v.validateNamespaces()
	v.validateCollections(entities.NamespaceDatabase, v.storage)
	v.validateCollections(entities.NamespaceMetadata, v.views)
	v.validateCircularBases(entities.NamespaceDatabase, v.storage)
	v.validateCircularBases(entities.NamespaceMetadata, v.views)

	if len(v.errors) > 0 {
		return fmt.Errorf("%w: the schema definition is not valid:\n%s", entities.ErrConfiguration, strings.Join(v.errors, "\n"))
	}
	return nil
}

// validateNamespaces checks the top level and indexes the collections
func (v *Validator) validateNamespaces() {
	for _, ns := range []string{entities.NamespaceDatabase, entities.NamespaceMetadata} {
		raw, ok := v.doc[ns]
		if !ok {
			v.errorf("missing required namespace: %s", ns)
			continue
		}
		collections, ok := raw.(map[string]interface{})
		if !ok {
			v.errorf("%s: must be a mapping of collections", ns)
			continue
		}

		index := v.storage
		if ns == entities.NamespaceMetadata {
			index = v.views
		}
		for name, entry := range collections {
			m, ok := entry.(map[string]interface{})
			if !ok {
				v.errorf("%s.%s: must be a mapping", ns, name)
				continue
			}
			index[name] = m
		}
	}

	if other, ok := v.doc[entities.NamespaceOther]; ok && other != nil {
		if _, ok := other.(map[string]interface{}); !ok {
			v.errorf("%s: must be a mapping", entities.NamespaceOther)
		}
	}
}

// validateCollections validates each collection entry of one namespace
func (v *Validator) validateCollections(ns string, index map[string]map[string]interface{}) {
	for _, name := range sortedNames(index) {
		entry := index[name]
		path := ns + "." + name

		if base, ok := v.optionalString(entry, "base", path); ok {
			if _, exists := index[base]; !exists {
				v.errorf("%s: base references undefined collection: %s", path, base)
			}
		}
		if ns == entities.NamespaceDatabase {
			v.optionalString(entry, "default", path)
		}

		raw, ok := entry["schema"]
		if !ok {
			v.errorf("%s: missing required key: schema", path)
			continue
		}
		schema, ok := raw.(map[string]interface{})
		if !ok {
			v.errorf("%s.schema: must be a mapping of attributes", path)
			continue
		}
		for _, attr := range sortedNames(schema) {
			v.validateAttribute(ns, path+".schema."+attr, schema[attr])
		}
	}
}

// validateAttribute validates one partial descriptor
func (v *Validator) validateAttribute(ns, path string, raw interface{}) {
	attr, ok := raw.(map[string]interface{})
	if !ok {
		v.errorf("%s: must be a mapping", path)
		return
	}

	_, hasType := v.optionalString(attr, "type", path)
	v.optionalString(attr, "concept", path)
	v.optionalBool(attr, "optional", path)
	v.validateAliases(attr, path)

	switch ns {
	case entities.NamespaceDatabase:
		ref, hasRef := v.optionalString(attr, "reference", path)
		if hasRef {
			if _, exists := v.storage[ref]; !exists {
				v.errorf("%s: reference to undefined collection: %s", path, ref)
			}
		}
		if !hasType && !hasRef {
			v.errorf("%s: either type or reference is required", path)
		}
	case entities.NamespaceMetadata:
		col, hasCol := v.optionalString(attr, "collection", path)
		if hasCol {
			if _, exists := v.storage[col]; !exists {
				v.errorf("%s: collection references undefined %s collection: %s", path, entities.NamespaceDatabase, col)
			}
		}
		v.optionalBool(attr, "readonly", path)
		if !hasType && !hasCol {
			v.errorf("%s: either type or collection is required", path)
		}
	}
}

// validateAliases accepts a single string or a list of strings
func (v *Validator) validateAliases(attr map[string]interface{}, path string) {
	raw, ok := attr["aliases"]
	if !ok {
		return
	}
	switch t := raw.(type) {
	case string:
		if t == "" {
			v.errorf("%s.aliases: must not be empty", path)
		}
	case []interface{}:
		for i, item := range t {
			if s, ok := item.(string); !ok || s == "" {
				v.errorf("%s.aliases[%d]: must be a non-empty string", path, i)
			}
		}
	default:
		v.errorf("%s.aliases: must be a string or a list of strings", path)
	}
}

// validateCircularBases reports every base chain that loops back on itself
func (v *Validator) validateCircularBases(ns string, index map[string]map[string]interface{}) {
	reported := make(map[string]bool)
	for _, start := range sortedNames(index) {
		visited := map[string]bool{start: true}
		path := []string{start}
		for name := start; ; {
			base, _ := index[name]["base"].(string)
			if base == "" {
				break
			}
			if _, exists := index[base]; !exists {
				break
			}
			if visited[base] {
				cycle := append(path, base)
				key := canonicalCycle(cycle)
				if !reported[key] {
					reported[key] = true
					v.errorf("%s: circular base reference: %s", ns, strings.Join(cycle, " -> "))
				}
				break
			}
			visited[base] = true
			path = append(path, base)
			name = base
		}
	}
}

// optionalString returns the value of key if present; a non-string value is an error
func (v *Validator) optionalString(m map[string]interface{}, key, path string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		v.errorf("%s.%s: must be a non-empty string", path, key)
		return "", false
	}
	return s, true
}

// optionalBool checks that key, if present, is a boolean
func (v *Validator) optionalBool(m map[string]interface{}, key, path string) {
	raw, ok := m[key]
	if !ok {
		return
	}
	if _, ok := raw.(bool); !ok {
		v.errorf("%s.%s: must be a boolean", path, key)
	}
}

func (v *Validator) errorf(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

// canonicalCycle identifies a cycle independently of the collection it was entered from
func canonicalCycle(cycle []string) string {
	members := make([]string, 0, len(cycle))
	start := 0
	for i, name := range cycle {
		if name == cycle[len(cycle)-1] {
			start = i
			break
		}
	}
	members = append(members, cycle[start:len(cycle)-1]...)
	sort.Strings(members)
	return strings.Join(members, ",")
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
