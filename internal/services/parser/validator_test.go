package parser

import (
	"testing"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, input string) error {
	t.Helper()
	doc, err := NewParser([]byte(input)).Parse()
	require.NoError(t, err)
	return NewValidator(doc).Validate()
}

func TestValidator_ValidDocument(t *testing.T) {
	assert.NoError(t, validate(t, minimalDocument))
	assert.NoError(t, validate(t, "Database: {}\nMetadata: {}\nOther: {anything: [1, 2]}\n"))
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "missing Database",
			input:   "Metadata: {}\n",
			wantErr: "missing required namespace: Database",
		},
		{
			name:    "namespace is not a mapping",
			input:   "Database: [a]\nMetadata: {}\n",
			wantErr: "Database: must be a mapping of collections",
		},
		{
			name:    "Other is not a mapping",
			input:   "Database: {}\nMetadata: {}\nOther: [a]\n",
			wantErr: "Other: must be a mapping",
		},
		{
			name:    "collection without schema",
			input:   "Database:\n  site: {base: x}\nMetadata: {}\n",
			wantErr: "Database.site: missing required key: schema",
		},
		{
			name:    "undefined base",
			input:   "Database:\n  site: {base: station, schema: {}}\nMetadata: {}\n",
			wantErr: "base references undefined collection: station",
		},
		{
			name:    "storage attribute without type or reference",
			input:   "Database:\n  site:\n    schema:\n      lat: {concept: latitude}\nMetadata: {}\n",
			wantErr: "Database.site.schema.lat: either type or reference is required",
		},
		{
			name:    "undefined reference",
			input:   "Database:\n  site:\n    schema:\n      loc: {reference: channel}\nMetadata: {}\n",
			wantErr: "reference to undefined collection: channel",
		},
		{
			name:    "view attribute without type or collection",
			input:   "Database: {}\nMetadata:\n  TimeSeries:\n    schema:\n      npts: {readonly: true}\n",
			wantErr: "either type or collection is required",
		},
		{
			name:    "view collection undefined",
			input:   "Database: {}\nMetadata:\n  TimeSeries:\n    schema:\n      npts: {collection: wf}\n",
			wantErr: "collection references undefined Database collection: wf",
		},
		{
			name:    "readonly is not a boolean",
			input:   "Database:\n  wf:\n    schema:\n      npts: {type: int}\nMetadata:\n  TimeSeries:\n    schema:\n      npts: {collection: wf, readonly: yes please}\n",
			wantErr: "readonly: must be a boolean",
		},
		{
			name:    "aliases of the wrong kind",
			input:   "Database:\n  wf:\n    schema:\n      npts: {type: int, aliases: {a: b}}\nMetadata: {}\n",
			wantErr: "aliases: must be a string or a list of strings",
		},
		{
			name:    "alias list with a non-string",
			input:   "Database:\n  wf:\n    schema:\n      npts: {type: int, aliases: [nsamp, 3]}\nMetadata: {}\n",
			wantErr: "aliases[1]: must be a non-empty string",
		},
		{
			name:    "type is not a string",
			input:   "Database:\n  wf:\n    schema:\n      npts: {type: [int]}\nMetadata: {}\n",
			wantErr: "npts.type: must be a non-empty string",
		},
		{
			name:    "circular base",
			input:   "Database:\n  a: {base: b, schema: {}}\n  b: {base: a, schema: {}}\nMetadata: {}\n",
			wantErr: "Database: circular base reference: a -> b -> a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(t, tt.input)
			require.ErrorIs(t, err, entities.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidator_ReportsEveryProblem(t *testing.T) {
	err := validate(t, `
Database:
  a:
    base: b
    schema:
      x: {concept: untyped}
  b:
    base: a
    schema: {}
Metadata:
  V:
    schema:
      y: {collection: missing}
`)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "either type or reference is required")
	assert.Contains(t, msg, "collection references undefined Database collection: missing")
	assert.Equal(t, 1, countOccurrences(msg, "circular base reference"))
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
