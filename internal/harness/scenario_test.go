package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesQueryFiles(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/cross_dialect.yaml")
	require.NoError(t, err)

	assert.Equal(t, "cross_dialect", s.Name)
	assert.Equal(t, "postgres", s.Dialect)
	require.Len(t, s.Steps, 4)
	for _, step := range s.Steps {
		require.NotNil(t, step.Query, "step %s", step.Name)
		assert.Equal(t, "users", step.Query.Table.Name)
	}
	assert.Equal(t, "mongo", s.Steps[2].Dialect)
}

func TestLoadScenario_MissingQueryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: missing
description: "Refers to a query file that does not exist"
steps:
  - file: nowhere.yaml
`), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "Misspelled field"
steps:
  - query: { operation: select, table: { name: t } }
assertion:
  - type: trace_count
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_RejectsUnknownQueryFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "Misspelled query field"
steps:
  - query: { operation: select, tabel: { name: t } }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{ query: { operation: select, table: { name: t } } }]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps: [{ query: { operation: select, table: { name: t } } }]",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\nsteps: []",
			wantErr: "steps list is required",
		},
		{
			name:    "query and file",
			yaml:    "name: n\ndescription: d\nsteps: [{ file: q.yaml, query: { operation: select, table: { name: t } } }]",
			wantErr: "exactly one of query and file",
		},
		{
			name:    "neither query nor file",
			yaml:    "name: n\ndescription: d\nsteps: [{ name: empty }]",
			wantErr: "exactly one of query and file",
		},
		{
			name:    "setup without execute",
			yaml:    "name: n\ndescription: d\nsetup: [CREATE TABLE t (a INT)]\nsteps: [{ file: q.yaml }]",
			wantErr: "setup requires execute",
		},
		{
			name:    "error with text",
			yaml:    "name: n\ndescription: d\nsteps: [{ file: q.yaml, expect: { error: ARITY, text: x } }]",
			wantErr: "error cannot be combined",
		},
		{
			name:    "rows without execute",
			yaml:    "name: n\ndescription: d\nsteps: [{ file: q.yaml, expect: { rows: [] } }]",
			wantErr: "rows and affected require execute",
		},
		{
			name:    "final_state without execute",
			yaml:    "name: n\ndescription: d\nsteps: [{ file: q.yaml }]\nassertions: [{ type: final_state, table: t, expect: { a: 1 } }]",
			wantErr: "final_state requires execute",
		},
		{
			name:    "final_state without expect",
			yaml:    "name: n\ndescription: d\nexecute: true\nsteps: [{ file: q.yaml }]\nassertions: [{ type: final_state, table: t }]",
			wantErr: "expect is required for final_state",
		},
		{
			name:    "trace_contains without text",
			yaml:    "name: n\ndescription: d\nsteps: [{ file: q.yaml }]\nassertions: [{ type: trace_contains }]",
			wantErr: "text is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nsteps: [{ file: q.yaml }]\nassertions: [{ type: trace_magic }]",
			wantErr: `unknown assertion type "trace_magic"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
