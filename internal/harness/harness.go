package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/compiler"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/store"
	"github.com/roach88/qforge/internal/testutil"
)

// Harness runs the steps of one scenario.
type Harness struct {
	scenario *Scenario
	store    *store.Store // nil unless the scenario executes
	clock    *testutil.DeterministicClock
	logger   *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger for step progress. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// Run executes a test scenario and returns the result.
//
// Executing scenarios get a fresh in-memory database each, so runs are
// isolated and repeatable.
//
// Execution flow:
// 1. Open the database and run setup SQL (execute only)
// 2. Compile each step and check its expectations
// 3. Run the compiled command (execute only)
// 4. Evaluate assertions against the trace and database
//
// The returned error reports infrastructure failures. Failed expectations
// are recorded in the result instead.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		clock:    testutil.NewDeterministicClock(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	if scenario.Execute {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		h.store = st

		if err := st.Seed(ctx, scenario.Setup...); err != nil {
			return nil, fmt.Errorf("failed to execute setup: %w", err)
		}
	}

	result := NewResult(scenario.Name)
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.runStep(ctx, i, step, result)
	}

	actx := &AssertionContext{
		Store: h.store,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"steps", len(scenario.Steps),
	)

	return result, nil
}

// RunAll runs scenarios concurrently, at most limit at a time (no limit
// when limit <= 0). Results are returned in input order. The first
// infrastructure error cancels the remaining runs.
func RunAll(ctx context.Context, scenarios []*Scenario, limit int, opts ...Option) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			r, err := Run(ctx, s, opts...)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runStep compiles one step, records a trace event and checks expectations.
func (h *Harness) runStep(ctx context.Context, i int, step Step, result *Result) {
	label := stepLabel(i, step)
	event := TraceEvent{Seq: h.clock.Next(), Step: step.Name}

	cmd, d, err := h.compile(step)
	if d != nil {
		event.Dialect = d.Name
	}

	if err != nil {
		event.Type = EventError
		event.Code = errorCode(err)
		event.Message = err.Error()
		result.Trace = append(result.Trace, event)

		switch {
		case step.Expect == nil || step.Expect.Error == "":
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, err))
		case !matchesCode(err, step.Expect.Error):
			result.AddError(fmt.Sprintf("%s: expected error %s, got %s: %v", label, step.Expect.Error, event.Code, err))
		}
		h.logger.Info("step failed to compile", "step", label, "code", event.Code)
		return
	}

	event.Type = EventCommand
	event.Operation = string(cmd.Operation())
	event.Text = cmd.Text()
	event.Args = cmd.Args()

	if h.store != nil {
		h.execute(ctx, label, d, cmd, &event, result)
	}
	result.Trace = append(result.Trace, event)

	if e := step.Expect; e != nil {
		for _, msg := range checkExpect(e, event) {
			result.AddError(label + ": " + msg)
		}
	}

	h.logger.Info("step compiled",
		"step", label,
		"dialect", event.Dialect,
		"operation", event.Operation,
	)
}

func (h *Harness) compile(step Step) (command.Bound, *dialect.Dialect, error) {
	if step.Query == nil {
		return command.Bound{}, nil, fmt.Errorf("query file %s was not loaded", step.File)
	}
	d, err := compiler.Resolve(step.Query, step.Dialect, h.scenario.Dialect)
	if err != nil {
		return command.Bound{}, nil, err
	}
	cmd, err := compiler.Compile(step.Query, d)
	return cmd, d, err
}

// execute runs cmd on the scenario database and records what it returned.
func (h *Harness) execute(ctx context.Context, label string, d *dialect.Dialect, cmd command.Bound, event *TraceEvent, result *Result) {
	if d != dialect.SQLite {
		result.AddError(fmt.Sprintf("%s: execute requires the sqlite dialect, got %s", label, d.Name))
		return
	}

	if cmd.Operation() == queryir.OpSelect {
		rows, err := h.store.Query(ctx, cmd)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: %v", label, err))
			return
		}
		event.Rows = rows
		return
	}

	n, err := h.store.Exec(ctx, cmd)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", label, err))
		return
	}
	event.Affected = &n
}

// checkExpect compares a command event against the step's expectations.
func checkExpect(e *Expect, event TraceEvent) []string {
	var failures []string

	if e.Error != "" {
		return []string{fmt.Sprintf("expected error %s, got command %q", e.Error, event.Text)}
	}
	if e.Text != "" && e.Text != event.Text {
		failures = append(failures, fmt.Sprintf("text mismatch:\n  expected: %s\n  actual:   %s", e.Text, event.Text))
	}
	for _, frag := range e.Contains {
		if !strings.Contains(event.Text, frag) {
			failures = append(failures, fmt.Sprintf("text %q does not contain %q", event.Text, frag))
		}
	}
	if e.Args != nil && !jsonEqual(e.Args, nonNil(event.Args)) {
		failures = append(failures, fmt.Sprintf("args mismatch: expected %v, actual %v", e.Args, event.Args))
	}
	if e.Rows != nil && !jsonEqual(e.Rows, nonNilRows(event.Rows)) {
		failures = append(failures, fmt.Sprintf("rows mismatch: expected %v, actual %v", e.Rows, event.Rows))
	}
	if e.Affected != nil {
		switch {
		case event.Affected == nil:
			failures = append(failures, fmt.Sprintf("expected %d affected rows, command was not executed as a write", *e.Affected))
		case *event.Affected != *e.Affected:
			failures = append(failures, fmt.Sprintf("expected %d affected rows, got %d", *e.Affected, *event.Affected))
		}
	}
	return failures
}

// errorCode returns the most specific code for err: the build error code
// when one is wrapped, otherwise the document validation code.
func errorCode(err error) string {
	if code := queryir.ErrorCode(err); code != "" {
		return string(code)
	}
	var ve *compiler.ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// matchesCode accepts either the build code or the validation code.
func matchesCode(err error, want string) bool {
	if string(queryir.ErrorCode(err)) == want {
		return true
	}
	var ve *compiler.ValidationError
	return errors.As(err, &ve) && ve.Code == want
}

func stepLabel(i int, step Step) string {
	if step.Name != "" {
		return fmt.Sprintf("steps[%d] (%s)", i, step.Name)
	}
	return fmt.Sprintf("steps[%d]", i)
}

// jsonEqual compares values by their JSON encoding, so YAML-decoded
// expectations (int, float64) match compiled arguments (int64).
func jsonEqual(expected, actual any) bool {
	a, err := json.Marshal(expected)
	if err != nil {
		return false
	}
	b, err := json.Marshal(actual)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

func nonNil(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}

func nonNilRows(rows []store.Row) []store.Row {
	if rows == nil {
		return []store.Row{}
	}
	return rows
}
