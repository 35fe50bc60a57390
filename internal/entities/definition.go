package entities

// Namespace keys of a schema document
const (
	NamespaceDatabase = "Database" // storage collections
	NamespaceMetadata = "Metadata" // view collections
	NamespaceOther    = "Other"    // extension namespace, ignored by resolution
)

// IdentityField is the attribute that uniquely identifies a stored record
const IdentityField = "_id"

// CollectionDefinition represents one collection as declared in a document,
// before inheritance and references are resolved.
// Example: "wf_Seismogram: {base: wf_TimeSeries, schema: {tmatrix: {type: list}}}"
type CollectionDefinition struct {
	Name    string                 // Collection name (e.g., "wf_TimeSeries", "TimeSeries")
	Base    string                 // Parent collection in the same namespace
	Default string                 // Logical key this collection is the default for (storage only)
	Schema  map[string]*Descriptor // Attribute name -> partial descriptor
}

// Definition represents a parsed and validated schema document
type Definition struct {
	Database map[string]*CollectionDefinition // Storage collections
	Metadata map[string]*CollectionDefinition // View collections
	Other    map[string]interface{}           // Extension namespace, kept verbatim
}

// NewDefinition creates an empty definition
func NewDefinition() *Definition {
	return &Definition{
		Database: make(map[string]*CollectionDefinition),
		Metadata: make(map[string]*CollectionDefinition),
	}
}

// GetCollection returns the storage collection definition by name
func (d *Definition) GetCollection(name string) *CollectionDefinition {
	if d == nil {
		return nil
	}
	return d.Database[name]
}

// GetView returns the view collection definition by name
func (d *Definition) GetView(name string) *CollectionDefinition {
	if d == nil {
		return nil
	}
	return d.Metadata[name]
}

// Lookup returns the descriptor declared directly on the collection, ignoring its base
func (c *CollectionDefinition) Lookup(attribute string) *Descriptor {
	if c == nil {
		return nil
	}
	return c.Schema[attribute]
}
