package queryir

import (
	"fmt"
)

// ValidationResult contains portability analysis of a query.
//
// The portable fragment is the subset of the query model that every target
// family (relational, document, search) can render. Queries outside this
// fragment still compile for the targets that support them, but fail with a
// capability or unsupported-construct error elsewhere.
type ValidationResult struct {
	// IsPortable indicates if the query uses only portable fragment features.
	IsPortable bool

	// Warnings lists non-portable features used in the query.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks if a query conforms to the portable fragment rules.
//
// Portable fragment rules:
//  1. Conditions are a flat AND list (no groups, OR or NOT connectives)
//  2. No raw expressions on columns, values, projections or orders
//  3. No GROUP BY
//  4. NULLS placement only where it matches the natural order
//  5. Plain inserts of a single row
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(q)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if !q.Operation.Valid() {
		v.addWarning("unknown operation %q", q.Operation)
		return
	}

	for i, n := range q.Nodes {
		v.validateNode(i, n)
	}

	for _, p := range q.Projections {
		if p.Expr != "" {
			v.addWarning("projection %s: raw expressions only render on relational targets", p.Column)
		}
	}

	if len(q.Groups) > 0 {
		v.addWarning("GROUP BY only renders on relational targets")
	}

	for _, o := range q.Orders {
		v.validateOrder(o)
	}

	switch q.Operation {
	case OpInsert:
		v.validateInsert(q)
	case OpUpdate:
		for _, m := range q.Sets {
			if m.Expr != "" {
				v.addWarning("set %s: raw expressions only render on relational targets", m.Column)
			}
		}
	}
}

func (v *validator) validateNode(i int, n Node) {
	switch n.Kind {
	case NodeOpen:
		v.addWarning("where[%d]: nested groups do not render on document targets", i)
		return
	case NodeClose:
		return
	}

	if n.Connective.Base() == Or {
		v.addWarning("where[%d]: %s does not render on document targets", i, n.Connective)
	}
	if n.Connective.Negated() {
		v.addWarning("where[%d]: %s does not render on document targets", i, n.Connective)
	}

	c := n.Condition
	if c.ColumnExpr() != "" || c.ValueExpr() != "" {
		v.addWarning("where[%d]: %s: raw expressions only render on relational targets", i, c.Column())
	}
}

func (v *validator) validateOrder(o Order) {
	if o.Expr != "" {
		v.addWarning("order %s: raw expressions only render on relational targets", o.Column)
	}

	// Document stores place nulls first ascending and last descending.
	desc := o.Dir == Desc
	if (o.Nulls == NullsLast && !desc) || (o.Nulls == NullsFirst && desc) {
		v.addWarning("order %s: NULLS %s %s is not the natural placement of document targets", o.Column, o.Nulls, o.Dir)
	}
}

func (v *validator) validateInsert(q Query) {
	if len(q.Rows) > 1 {
		v.addWarning("multi-row insert is not available on search targets")
	}
	if q.DuplicateStrategy() != DuplicateInto {
		v.addWarning("duplicate strategy %q only renders on some relational targets", q.Duplicate)
	}
	for _, row := range q.Rows {
		for _, m := range row {
			if m.Expr != "" {
				v.addWarning("insert %s: raw expressions only render on relational targets", m.Column)
			}
		}
	}
}
