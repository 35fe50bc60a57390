package parser

import (
	"testing"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	def := entities.NewDefinition()
	def.Database["site"] = &entities.CollectionDefinition{
		Name: "site",
		Schema: map[string]*entities.Descriptor{
			"net": {Type: "string", Aliases: []string{"network"}},
			"lat": {Type: "double"},
		},
	}

	got, err := NewGenerator().Generate(def)
	require.NoError(t, err)

	want := `Database:
  site:
    schema:
      lat:
        type: double
      net:
        aliases:
          - network
        type: string
Metadata: {}
`
	assert.Equal(t, want, got)
}

func TestGenerator_RoundTrip(t *testing.T) {
	def, err := LoadDefinitionFile("../../../testdata/mspass.yaml")
	require.NoError(t, err)

	gen := NewGenerator()
	out, err := gen.Generate(def)
	require.NoError(t, err)

	again, err := ParseDefinition([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, def, again)

	second, err := gen.Generate(again)
	require.NoError(t, err)
	assert.Equal(t, out, second)
}

func TestGenerator_Errors(t *testing.T) {
	_, err := NewGenerator().Generate(nil)
	assert.Error(t, err)
}

func TestGenerator_GenerateValue(t *testing.T) {
	got, err := NewGenerator().GenerateValue(map[string]interface{}{"npts": map[string]interface{}{"type": "int"}})
	require.NoError(t, err)
	assert.Equal(t, "npts:\n  type: int\n", got)
}
