package parser

import (
	"testing"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDefinition(t *testing.T) {
	doc := map[string]interface{}{
		"Database": map[string]interface{}{
			"wf_Seismogram": map[string]interface{}{
				"base": "wf_TimeSeries",
				"schema": map[string]interface{}{
					"tmatrix": map[string]interface{}{"type": "list", "optional": true},
				},
			},
			"wf_TimeSeries": map[string]interface{}{
				"default": "wf",
				"schema": map[string]interface{}{
					"delta": map[string]interface{}{"type": "double", "aliases": "dt"},
					"npts":  map[string]interface{}{"type": "int", "aliases": []interface{}{"nsamp"}},
					"calib": map[string]interface{}{"type": "double", "aliases": []interface{}{}},
				},
			},
		},
		"Metadata": map[string]interface{}{
			"Seismogram": map[string]interface{}{
				"schema": map[string]interface{}{
					"tmatrix": map[string]interface{}{"collection": "wf_Seismogram", "readonly": false},
				},
			},
		},
		"Other": map[string]interface{}{"notes": "kept"},
	}

	def, err := ToDefinition(doc)
	require.NoError(t, err)

	seis := def.GetCollection("wf_Seismogram")
	require.NotNil(t, seis)
	assert.Equal(t, "wf_TimeSeries", seis.Base)
	assert.Equal(t, &entities.Descriptor{Type: "list", Optional: entities.Bool(true)}, seis.Lookup("tmatrix"))

	ts := def.GetCollection("wf_TimeSeries")
	assert.Equal(t, "wf", ts.Default)
	assert.Equal(t, []string{"dt"}, ts.Lookup("delta").Aliases)
	assert.Equal(t, []string{"nsamp"}, ts.Lookup("npts").Aliases)
	assert.NotNil(t, ts.Lookup("calib").Aliases)
	assert.Empty(t, ts.Lookup("calib").Aliases)

	view := def.GetView("Seismogram").Lookup("tmatrix")
	assert.Equal(t, "wf_Seismogram", view.Collection)
	require.NotNil(t, view.Readonly)
	assert.False(t, *view.Readonly)

	assert.Equal(t, map[string]interface{}{"notes": "kept"}, def.Other)
}

func TestToDefinition_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]interface{}
	}{
		{
			name: "missing namespace",
			doc:  map[string]interface{}{"Database": map[string]interface{}{}},
		},
		{
			name: "collection is not a mapping",
			doc: map[string]interface{}{
				"Database": map[string]interface{}{"site": "x"},
				"Metadata": map[string]interface{}{},
			},
		},
		{
			name: "alias is not a string",
			doc: map[string]interface{}{
				"Database": map[string]interface{}{
					"site": map[string]interface{}{
						"schema": map[string]interface{}{
							"lat": map[string]interface{}{"type": "double", "aliases": []interface{}{1}},
						},
					},
				},
				"Metadata": map[string]interface{}{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := ToDefinition(tt.doc)
			assert.ErrorIs(t, err, entities.ErrConfiguration)
			assert.Nil(t, def)
		})
	}
}

func TestDefinitionToDocument_RoundTrip(t *testing.T) {
	def, err := ParseDefinition([]byte(minimalDocument))
	require.NoError(t, err)

	again, err := ToDefinition(DefinitionToDocument(def))
	require.NoError(t, err)
	assert.Equal(t, def, again)
}

func TestDescriptorToDocument(t *testing.T) {
	got := DescriptorToDocument(&entities.Descriptor{
		Type:     "int",
		Aliases:  []string{"wfdisc.nsamp", "nsamp"},
		Readonly: entities.Bool(true),
	})
	assert.Equal(t, map[string]interface{}{
		"type":     "int",
		"aliases":  []string{"nsamp", "wfdisc.nsamp"},
		"readonly": true,
	}, got)

	assert.Empty(t, DescriptorToDocument(nil))
}
