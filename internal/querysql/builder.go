package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Build compiles q for the relational dialect d, dispatching on the
// query's operation.
//
// CRITICAL: values are never interpolated. Every value is a '?' placeholder
// and the returned args line up with the placeholders in text order.
func Build(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	switch q.Operation {
	case queryir.OpSelect:
		return Select(d, q)
	case queryir.OpInsert:
		return Insert(d, q)
	case queryir.OpUpdate:
		return Update(d, q)
	case queryir.OpDelete:
		return Delete(d, q)
	}
	return command.Bound{}, fmt.Errorf("unsupported operation: %q", q.Operation)
}

// renderer holds the state of one build: the snapshot being rendered and the
// arguments bound so far.
type renderer struct {
	d *dialect.Dialect
	q queryir.Query
	b render.Binder
}

func newRenderer(d *dialect.Dialect, q queryir.Query) *renderer {
	return &renderer{d: d, q: q}
}

func (r *renderer) ident(name string) string {
	return r.d.QuoteIdent(name, r.q.Delimited)
}

func (r *renderer) table() (string, error) {
	if err := render.CheckTable(r.d.Name, r.q.Table.Tertiary); err != nil {
		return "", err
	}
	return r.d.TableName(r.q.Table, r.q.Delimited), nil
}

// where renders the condition tree without the WHERE keyword. An empty
// result means there is no condition.
func (r *renderer) where() (string, error) {
	tree, err := render.BuildTree(r.d.Name, r.q.Nodes)
	if err != nil {
		return "", err
	}
	return render.Infix(r.d, tree, r.condition)
}

// condition renders one leaf:
//
//	col IS NULL
//	col = ?
//	col LIKE CONCAT('%', ?, '%')
//	col IN (?, ?, ?)
//	col BETWEEN ? AND ?
func (r *renderer) condition(c queryir.Condition) (string, error) {
	// A column expression binds the first value once per placeholder, ahead
	// of the value side. Unary operators have no value to bind.
	col := r.ident(c.Column())
	if expr := c.ColumnExpr(); expr != "" {
		if c.Op().Arity() == queryir.ArityUnary {
			if err := render.NoPlaceholders(r.d.Name, "condition", c.Column(), expr); err != nil {
				return "", err
			}
			col = expr
		} else {
			col = r.b.BindExpr(expr, c.Value(0))
		}
	}
	op := r.d.Operator(c.Op())

	switch c.Op().Arity() {
	case queryir.ArityUnary:
		return col + " " + op, nil

	case queryir.ArityBinary:
		if c.Op() == queryir.Like || c.Op() == queryir.NotLike {
			return col + " " + op + " " + r.likeValue(c), nil
		}
		return col + " " + op + " " + r.b.BindExpr(c.ValueExpr(), c.Value(0)), nil

	case queryir.ArityList:
		marks := make([]string, c.Len())
		for i, v := range c.Values() {
			marks[i] = r.b.BindExpr(c.ValueExpr(), v)
		}
		return col + " " + op + " (" + strings.Join(marks, ", ") + ")", nil

	case queryir.ArityRange:
		lo := r.b.BindExpr(c.ValueExpr(), c.Value(0))
		hi := r.b.BindExpr(c.ValueExpr(), c.Value(1))
		return col + " " + op + " " + lo + " AND " + hi, nil
	}

	return "", queryir.NewUnsupportedError(r.d.Name, "operator %q", c.Op())
}

// likeValue wraps the bound LIKE value with wildcards in the dialect's
// concatenation syntax. LEFT puts the wildcard on the left (ends-with),
// RIGHT on the right (starts-with).
func (r *renderer) likeValue(c queryir.Condition) string {
	if c.ValueExpr() != "" {
		return r.b.BindExpr(c.ValueExpr(), c.Value(0))
	}
	mark := r.b.Bind(c.Value(0))

	left, right := true, true
	switch c.Like() {
	case queryir.LikeLeft:
		right = false
	case queryir.LikeRight:
		left = false
	}

	switch r.d.Like {
	case dialect.LikePipes:
		return wrapInfix(mark, " || ", left, right)
	case dialect.LikePlus:
		return wrapInfix(mark, " + ", left, right)
	case dialect.LikeNestedConcat:
		switch {
		case left && right:
			return "CONCAT(CONCAT('%', " + mark + "), '%')"
		case left:
			return "CONCAT('%', " + mark + ")"
		default:
			return "CONCAT(" + mark + ", '%')"
		}
	default:
		parts := []string{mark}
		if left {
			parts = append([]string{"'%'"}, parts...)
		}
		if right {
			parts = append(parts, "'%'")
		}
		return "CONCAT(" + strings.Join(parts, ", ") + ")"
	}
}

func wrapInfix(mark, op string, left, right bool) string {
	s := mark
	if left {
		s = "'%'" + op + s
	}
	if right {
		s = s + op + "'%'"
	}
	return s
}
