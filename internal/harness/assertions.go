package harness

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/qforge/internal/builder"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/store"
)

// validIdentifier matches plain SQL identifiers (table/column names).
// Assertion tables and columns are restricted to these.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Type == EventCommand {
				fmt.Fprintf(&buf, "  [%d] %s %v\n", event.Seq, event.Text, event.Args)
			} else {
				fmt.Fprintf(&buf, "  [%d] error %s\n", event.Seq, event.Code)
			}
		}
	}

	return buf.String()
}

// assertTraceContains checks that some command text contains the fragment.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == EventCommand && strings.Contains(event.Text, assertion.Text) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("command containing %q", assertion.Text),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the fragments appear in command order.
// Commands between matches are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(assertion.Texts) {
			break
		}
		if event.Type == EventCommand && strings.Contains(event.Text, assertion.Texts[next]) {
			next++
		}
	}

	if next < len(assertion.Texts) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("commands in order: %q", assertion.Texts),
			Actual:   fmt.Sprintf("no command containing %q after the first %d matches", assertion.Texts[next], next),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks the number of commands with the given operation.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	op := strings.ToLower(assertion.Operation)
	for _, event := range trace {
		if event.Type == EventCommand && (op == "" || event.Operation == op) {
			count++
		}
	}

	if count != assertion.Count {
		what := "commands"
		if op != "" {
			what = op + " commands"
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks that exactly one row matches Where and that it
// carries the expected values (subset semantics).
//
// The lookup is itself compiled for SQLite, so values are never
// interpolated.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	b, err := stateQuery(assertion)
	if err != nil {
		return err
	}
	cmd, err := b.BuildSelect()
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}

	rows, err := st.Query(ctx, cmd)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	whereDesc := formatWhereClause(assertion.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(rows)),
		}
	}

	actual := rows[0]
	for _, key := range sortedKeys(assertion.Expect) {
		expected := assertion.Expect[key]
		value, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q to exist", key),
				Actual:   fmt.Sprintf("column %q not present in row %v", key, actual),
			}
		}
		if !jsonEqual(expected, value) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q = %v (type %T)", key, expected, expected),
				Actual:   fmt.Sprintf("column %q = %v (type %T)", key, value, value),
			}
		}
	}

	return nil
}

// assertRowCount checks how many rows in the table match Where.
func assertRowCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	b, err := stateQuery(assertion)
	if err != nil {
		return err
	}
	cmd, err := b.BuildCount()
	if err != nil {
		return fmt.Errorf("row_count: %w", err)
	}

	rows, err := st.Query(ctx, cmd)
	if err != nil || len(rows) != 1 {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("count rows in %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	var count any
	for _, v := range rows[0] {
		count = v
	}
	if !jsonEqual(assertion.Count, count) {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s where %s", assertion.Count, assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   fmt.Sprintf("%v rows", count),
		}
	}
	return nil
}

// stateQuery builds an equality lookup on the assertion table. Keys are
// sorted for deterministic text.
func stateQuery(assertion Assertion) (*builder.Builder, error) {
	if !validIdentifier.MatchString(assertion.Table) {
		return nil, fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	b := builder.New(dialect.SQLite).SetTable("", "", assertion.Table)
	for _, key := range sortedKeys(assertion.Where) {
		if !validIdentifier.MatchString(key) {
			return nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		op, values := queryir.Eq, []any{assertion.Where[key]}
		if assertion.Where[key] == nil {
			op, values = queryir.IsNull, nil
		}
		if err := b.AddCondition(queryir.And, key, op, values...); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state and
// row_count assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertRowCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			} else {
				err = assertRowCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
