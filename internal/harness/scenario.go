package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qforge/internal/compiler"
)

// Scenario is a sequence of query compilations with expectations.
//
// Each step compiles one query document, inline or loaded from a file, and
// checks the produced text, arguments or error. With Execute set the compiled
// commands also run against a fresh SQLite database, and steps may check
// returned rows and affected counts.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect is the default target for steps whose query names none.
	Dialect string `yaml:"dialect,omitempty"`

	// Execute runs compiled commands on SQLite. Only sqlite steps may
	// appear in an executing scenario.
	Execute bool `yaml:"execute,omitempty"`

	// Setup holds raw SQL run before the first step. Requires Execute.
	Setup []string `yaml:"setup,omitempty"`

	// Steps are compiled in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and database state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, row_count
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step compiles one query document.
type Step struct {
	// Name labels the step in errors and the trace.
	Name string `yaml:"name,omitempty"`

	// Query is an inline document.
	Query *compiler.Document `yaml:"query,omitempty"`

	// File is a query document path, relative to the scenario file.
	// Exactly one of Query and File is set.
	File string `yaml:"file,omitempty"`

	// Dialect overrides the query's own dialect and the scenario default.
	Dialect string `yaml:"dialect,omitempty"`

	// Expect is optional. Without it the step only has to compile.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step.
type Expect struct {
	// Text is the exact command text.
	Text string `yaml:"text,omitempty"`

	// Contains lists fragments the text must include.
	Contains []string `yaml:"contains,omitempty"`

	// Args is the exact argument list. Omit to skip the check; use [] to
	// require no arguments.
	Args []any `yaml:"args,omitempty"`

	// Error is an expected error code: a build code such as ARITY or
	// CAPABILITY, or a document code such as E107.
	Error string `yaml:"error,omitempty"`

	// Rows are the exact rows a select returns (Execute only).
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Affected is the row count a write reports (Execute only).
	Affected *int64 `yaml:"affected,omitempty"`
}

// Assertion validates the trace or the final database state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": some command text contains Text
	// - "trace_order": the fragments in Texts appear in command order
	// - "trace_count": exactly Count commands have Operation
	// - "final_state": the single row in Table matching Where has Expect
	// - "row_count": exactly Count rows in Table match Where
	Type string `yaml:"type"`

	// Text is a command text fragment (used by trace_contains).
	Text string `yaml:"text,omitempty"`

	// Texts are fragments in expected order (used by trace_order).
	Texts []string `yaml:"texts,omitempty"`

	// Operation filters commands (used by trace_count). Empty counts every
	// compiled command.
	Operation string `yaml:"operation,omitempty"`

	// Table is the table to query (used by final_state and row_count).
	Table string `yaml:"table,omitempty"`

	// Where holds equality filters (used by final_state and row_count).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (used by final_state).
	// Subset match - only specified columns are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number (used by trace_count and row_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
)

// LoadScenario reads and parses a scenario YAML file, then loads every step
// that names a query file. Returns an error if the file doesn't exist, is
// malformed, contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range s.Steps {
		step := &s.Steps[i]
		if step.File == "" {
			continue
		}
		file := step.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		doc, err := compiler.LoadFile(file)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		step.Query = doc
	}

	return s, nil
}

// ParseScenario parses scenario YAML. Steps that name a query file are left
// unloaded; use LoadScenario to resolve them.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Setup) > 0 && !s.Execute {
		return fmt.Errorf("setup requires execute: true")
	}

	for i, step := range s.Steps {
		if (step.Query == nil) == (step.File == "") {
			return fmt.Errorf("steps[%d]: exactly one of query and file is required", i)
		}
		if e := step.Expect; e != nil && e.Error != "" {
			if e.Text != "" || len(e.Contains) > 0 || e.Args != nil || e.Rows != nil || e.Affected != nil {
				return fmt.Errorf("steps[%d].expect: error cannot be combined with output expectations", i)
			}
		}
		if e := step.Expect; e != nil && !s.Execute && (e.Rows != nil || e.Affected != nil) {
			return fmt.Errorf("steps[%d].expect: rows and affected require execute: true", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Execute); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, execute bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Texts) == 0 {
			return fmt.Errorf("assertions[%d]: texts list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState, AssertRowCount:
		if !execute {
			return fmt.Errorf("assertions[%d]: %s requires execute: true", index, a.Type)
		}
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for %s", index, a.Type)
		}
		if a.Type == AssertFinalState && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if a.Type == AssertRowCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
