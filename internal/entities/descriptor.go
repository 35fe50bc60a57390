package entities

// Descriptor represents the metadata of one attribute.
// A zero string, a nil slice or a nil pointer means the property was not
// declared; Overlay relies on that distinction.
// Example: "npts: {type: int, concept: Number of data samples, aliases: [nsamp]}"
type Descriptor struct {
	Type       string   // Declared type spelling (e.g., "int", "double", "ObjectID")
	Concept    string   // Human readable description
	Aliases    []string // Alternate names (nil = not declared, empty = declared empty)
	Reference  string   // Storage collection this attribute points to
	Collection string   // Storage collection a view attribute is sourced from
	Readonly   *bool    // View attributes only; nil means readonly
	Optional   *bool    // nil means required
}

// Clone returns a deep copy of the descriptor
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	c := *d
	if d.Aliases != nil {
		c.Aliases = append(make([]string, 0, len(d.Aliases)), d.Aliases...)
	}
	if d.Readonly != nil {
		v := *d.Readonly
		c.Readonly = &v
	}
	if d.Optional != nil {
		v := *d.Optional
		c.Optional = &v
	}
	return &c
}

// Overlay merges d on top of foreign and returns a new descriptor.
// Every property declared on d wins; properties only declared on foreign
// are adopted. Neither input is modified.
func (d *Descriptor) Overlay(foreign *Descriptor) *Descriptor {
	merged := foreign.Clone()
	if merged == nil {
		merged = &Descriptor{}
	}
	local := d.Clone()
	if local == nil {
		return merged
	}

	if local.Type != "" {
		merged.Type = local.Type
	}
	if local.Concept != "" {
		merged.Concept = local.Concept
	}
	if local.Aliases != nil {
		merged.Aliases = local.Aliases
	}
	if local.Reference != "" {
		merged.Reference = local.Reference
	}
	if local.Collection != "" {
		merged.Collection = local.Collection
	}
	if local.Readonly != nil {
		merged.Readonly = local.Readonly
	}
	if local.Optional != nil {
		merged.Optional = local.Optional
	}
	return merged
}

// HasType reports whether a type was declared
func (d *Descriptor) HasType() bool {
	return d != nil && d.Type != ""
}

// AttributeType returns the normalized type of the descriptor
func (d *Descriptor) AttributeType() AttributeType {
	if d == nil {
		return TypeUnknown
	}
	return ParseAttributeType(d.Type)
}

// Bool returns a pointer to v, for building descriptors in code
func Bool(v bool) *bool {
	return &v
}
