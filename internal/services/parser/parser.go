package parser

import (
	"bytes"
	"fmt"
	"os"

	"github.com/asakaida/mdschema/internal/entities"
	"gopkg.in/yaml.v3"
)

// Parser decodes a schema document into a nested mapping.
// YAML is accepted, and therefore JSON as well.
type Parser struct {
	source string
	data   []byte
}

// NewParser creates a new Parser over the raw document bytes
func NewParser(data []byte) *Parser {
	return &Parser{
		source: "<document>",
		data:   data,
	}
}

// NewFileParser reads the document at path.
// The path is always explicit: there is no search path or environment fallback.
func NewFileParser(path string) (*Parser, error) {
	if path == "" {
		return nil, fmt.Errorf("schema file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open schema definition file %s: %w", path, err)
	}
	return &Parser{source: path, data: data}, nil
}

// Source returns the file name or a placeholder for in-memory documents
func (p *Parser) Source() string {
	return p.source
}

// Data returns the raw document bytes
func (p *Parser) Data() []byte {
	return p.data
}

// Parse decodes the document. The top level must be a mapping.
func (p *Parser) Parse() (map[string]interface{}, error) {
	if len(bytes.TrimSpace(p.data)) == 0 {
		return nil, fmt.Errorf("%w: schema definition %s is empty", entities.ErrConfiguration, p.source)
	}

	var raw interface{}
	if err := yaml.Unmarshal(p.data, &raw); err != nil {
		return nil, fmt.Errorf("%w: cannot parse schema definition %s: %w", entities.ErrConfiguration, p.source, err)
	}

	doc, ok := normalize(raw).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: schema definition %s: top level must be a mapping", entities.ErrConfiguration, p.source)
	}
	return doc, nil
}

// ParseDefinition decodes, validates and converts a document in one step
func ParseDefinition(data []byte) (*entities.Definition, error) {
	return NewParser(data).Definition()
}

// LoadDefinitionFile is ParseDefinition for the document at path
func LoadDefinitionFile(path string) (*entities.Definition, error) {
	p, err := NewFileParser(path)
	if err != nil {
		return nil, err
	}
	return p.Definition()
}

// Definition parses the document, validates it and converts it
func (p *Parser) Definition() (*entities.Definition, error) {
	doc, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if err := NewValidator(doc).Validate(); err != nil {
		return nil, fmt.Errorf("schema definition %s: %w", p.source, err)
	}
	return ToDefinition(doc)
}

// normalize converts mappings with non-string keys into string keyed ones
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []interface{}:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	default:
		return v
	}
}
