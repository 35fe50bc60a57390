package parser

import (
	"bytes"
	"fmt"

	"github.com/asakaida/mdschema/internal/entities"
	"gopkg.in/yaml.v3"
)

// Generator renders definitions back into YAML documents
type Generator struct {
	indent int
}

// NewGenerator creates a new Generator
func NewGenerator() *Generator {
	return &Generator{
		indent: 2,
	}
}

// Generate renders a definition. Mapping keys are emitted in sorted order,
// so equal definitions always produce identical documents.
func (g *Generator) Generate(def *entities.Definition) (string, error) {
	if def == nil {
		return "", fmt.Errorf("definition is nil")
	}
	return g.encode(DefinitionToDocument(def))
}

// GenerateValue renders any mapping, e.g. a resolved catalogue dump
func (g *Generator) GenerateValue(v interface{}) (string, error) {
	return g.encode(v)
}

func (g *Generator) encode(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(g.indent)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode schema document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode schema document: %w", err)
	}
	return buf.String(), nil
}
