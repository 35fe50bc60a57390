package parser

import (
	"fmt"
	"sort"

	"github.com/asakaida/mdschema/internal/entities"
)

// ToDefinition converts a validated document into entities.Definition
func ToDefinition(doc map[string]interface{}) (*entities.Definition, error) {
	def := entities.NewDefinition()

	var err error
	if def.Database, err = convertNamespace(doc, entities.NamespaceDatabase); err != nil {
		return nil, err
	}
	if def.Metadata, err = convertNamespace(doc, entities.NamespaceMetadata); err != nil {
		return nil, err
	}
	if other, ok := doc[entities.NamespaceOther].(map[string]interface{}); ok {
		def.Other = other
	}

	return def, nil
}

// DefinitionToDocument converts entities.Definition back into a nested mapping
func DefinitionToDocument(def *entities.Definition) map[string]interface{} {
	doc := map[string]interface{}{
		entities.NamespaceDatabase: namespaceToDocument(def.Database),
		entities.NamespaceMetadata: namespaceToDocument(def.Metadata),
	}
	if len(def.Other) > 0 {
		doc[entities.NamespaceOther] = def.Other
	}
	return doc
}

// convertNamespace converts the collections of one namespace
func convertNamespace(doc map[string]interface{}, ns string) (map[string]*entities.CollectionDefinition, error) {
	raw, ok := doc[ns].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing required namespace: %s", entities.ErrConfiguration, ns)
	}

	out := make(map[string]*entities.CollectionDefinition, len(raw))
	for name, entry := range raw {
		collection, err := convertCollection(name, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s collection %s: %w", ns, name, err)
		}
		out[name] = collection
	}
	return out, nil
}

// convertCollection converts one collection entry
func convertCollection(name string, raw interface{}) (*entities.CollectionDefinition, error) {
	entry, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: collection must be a mapping", entities.ErrConfiguration)
	}
	schema, ok := entry["schema"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: schema must be a mapping", entities.ErrConfiguration)
	}

	collection := &entities.CollectionDefinition{
		Name:   name,
		Schema: make(map[string]*entities.Descriptor, len(schema)),
	}
	collection.Base, _ = entry["base"].(string)
	collection.Default, _ = entry["default"].(string)

	for attr, value := range schema {
		d, err := convertDescriptor(value)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attr, err)
		}
		collection.Schema[attr] = d
	}
	return collection, nil
}

// convertDescriptor converts one partial descriptor
func convertDescriptor(raw interface{}) (*entities.Descriptor, error) {
	attr, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: attribute must be a mapping", entities.ErrConfiguration)
	}

	d := &entities.Descriptor{}
	d.Type, _ = attr["type"].(string)
	d.Concept, _ = attr["concept"].(string)
	d.Reference, _ = attr["reference"].(string)
	d.Collection, _ = attr["collection"].(string)
	if v, ok := attr["readonly"].(bool); ok {
		d.Readonly = entities.Bool(v)
	}
	if v, ok := attr["optional"].(bool); ok {
		d.Optional = entities.Bool(v)
	}

	// A single string is one alias
	switch aliases := attr["aliases"].(type) {
	case string:
		d.Aliases = []string{aliases}
	case []string:
		d.Aliases = append(make([]string, 0, len(aliases)), aliases...)
	case []interface{}:
		d.Aliases = make([]string, 0, len(aliases))
		for _, item := range aliases {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: aliases must be strings", entities.ErrConfiguration)
			}
			d.Aliases = append(d.Aliases, s)
		}
	}

	return d, nil
}

// namespaceToDocument converts collection definitions into nested mappings
func namespaceToDocument(collections map[string]*entities.CollectionDefinition) map[string]interface{} {
	out := make(map[string]interface{}, len(collections))
	for name, c := range collections {
		entry := map[string]interface{}{}
		if c.Base != "" {
			entry["base"] = c.Base
		}
		if c.Default != "" {
			entry["default"] = c.Default
		}
		schema := make(map[string]interface{}, len(c.Schema))
		for attr, d := range c.Schema {
			schema[attr] = DescriptorToDocument(d)
		}
		entry["schema"] = schema
		out[name] = entry
	}
	return out
}

// DescriptorToDocument converts a descriptor into a mapping with only the
// declared properties set
func DescriptorToDocument(d *entities.Descriptor) map[string]interface{} {
	out := map[string]interface{}{}
	if d == nil {
		return out
	}
	if d.Type != "" {
		out["type"] = d.Type
	}
	if d.Concept != "" {
		out["concept"] = d.Concept
	}
	if d.Aliases != nil {
		aliases := append([]string(nil), d.Aliases...)
		sort.Strings(aliases)
		out["aliases"] = aliases
	}
	if d.Reference != "" {
		out["reference"] = d.Reference
	}
	if d.Collection != "" {
		out["collection"] = d.Collection
	}
	if d.Readonly != nil {
		out["readonly"] = *d.Readonly
	}
	if d.Optional != nil {
		out["optional"] = *d.Optional
	}
	return out
}
