// Package builder is the caller-facing query accumulator.
//
// A Builder collects table, projections, conditions, ordering and mutations
// for one dialect, then compiles them with one of the terminal Build calls.
// Every build works on a snapshot: building never changes the builder, and
// the same builder can be built any number of times, for any operation.
//
// Builders are not safe for concurrent use. Compiled commands are.
package builder

import (
	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/paging"
	"github.com/roach88/qforge/internal/querydoc"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/querysearch"
	"github.com/roach88/qforge/internal/querysql"
)

// Builder accumulates a query for one dialect.
type Builder struct {
	d *dialect.Dialect
	q queryir.Query
}

// New returns an empty builder for d.
func New(d *dialect.Dialect) *Builder {
	return &Builder{d: d}
}

// Dialect returns the builder's target.
func (b *Builder) Dialect() *dialect.Dialect {
	return b.d
}

// Query returns a snapshot of the accumulated state. The operation is left
// unset until a build names one.
func (b *Builder) Query() queryir.Query {
	return b.q.Clone()
}

// SetTable sets the target. Empty parts are omitted when rendering; the
// table name itself is required by every build.
func (b *Builder) SetTable(catalog, schema, table string) *Builder {
	b.q.Table = queryir.Table{Primary: catalog, Secondary: schema, Tertiary: table}
	return b
}

// AddSelect adds plain columns to the projection. No projection selects
// every column.
func (b *Builder) AddSelect(columns ...string) *Builder {
	for _, c := range columns {
		b.q.Projections = append(b.q.Projections, queryir.Projection{Column: c})
	}
	return b
}

// AddSelectExpr adds a raw projection expression exposed as alias.
func (b *Builder) AddSelectExpr(alias, expr string) *Builder {
	b.q.Projections = append(b.q.Projections, queryir.Projection{Column: alias, Expr: expr})
	return b
}

// AddInsert adds a column value to the current insert row.
func (b *Builder) AddInsert(column string, value any) *Builder {
	return b.addInsert(queryir.Mutation{Column: column, Value: value})
}

// AddInsertExpr adds a column whose value renders as expr. value is bound
// once per placeholder in expr.
func (b *Builder) AddInsertExpr(column, expr string, value any) *Builder {
	return b.addInsert(queryir.Mutation{Column: column, Value: value, Expr: expr})
}

func (b *Builder) addInsert(m queryir.Mutation) *Builder {
	if len(b.q.Rows) == 0 {
		b.q.Rows = append(b.q.Rows, nil)
	}
	last := len(b.q.Rows) - 1
	b.q.Rows[last] = append(b.q.Rows[last], m)
	return b
}

// NewRow starts another insert row. Every row must name the same columns in
// the same order. Calling NewRow on an empty row does nothing.
func (b *Builder) NewRow() *Builder {
	if n := len(b.q.Rows); n > 0 && len(b.q.Rows[n-1]) > 0 {
		b.q.Rows = append(b.q.Rows, nil)
	}
	return b
}

// AddUpdateSet adds "column = value" to the SET list. A nil value sets NULL.
func (b *Builder) AddUpdateSet(column string, value any) *Builder {
	b.q.Sets = append(b.q.Sets, queryir.Mutation{Column: column, Value: value})
	return b
}

// AddUpdateSetExpr adds "column = expr"; value is bound once per placeholder
// in expr.
func (b *Builder) AddUpdateSetExpr(column, expr string, value any) *Builder {
	b.q.Sets = append(b.q.Sets, queryir.Mutation{Column: column, Value: value, Expr: expr})
	return b
}

// AddCondition adds a condition joined by conn. values must match the
// operator's arity; on error the builder is unchanged.
func (b *Builder) AddCondition(conn queryir.Connective, column string, op queryir.Operator, values ...any) error {
	c, err := queryir.NewCondition(column, op, values...)
	if err != nil {
		return err
	}
	return b.Where(conn, c)
}

// AddConditionForIn adds "column IN (...)", or NOT IN when negate is set.
func (b *Builder) AddConditionForIn(conn queryir.Connective, column string, negate bool, values ...any) error {
	op := queryir.In
	if negate {
		op = queryir.NotIn
	}
	return b.AddCondition(conn, column, op, values...)
}

// AddConditionForBetween adds "column BETWEEN lo AND hi", or NOT BETWEEN
// when negate is set.
func (b *Builder) AddConditionForBetween(conn queryir.Connective, column string, negate bool, lo, hi any) error {
	op := queryir.Between
	if negate {
		op = queryir.NotBetween
	}
	return b.AddCondition(conn, column, op, lo, hi)
}

// Where adds a prepared condition, for instance one carrying raw expressions
// or a LIKE mode.
func (b *Builder) Where(conn queryir.Connective, c queryir.Condition) error {
	if c.IsZero() {
		return queryir.NewArityError("", "condition was not created with NewCondition")
	}
	if conn == "" {
		conn = queryir.And
	}
	if !conn.Valid() {
		return queryir.NewUnsupportedError(b.d.Name, "unknown connective %q", conn)
	}
	b.q.Nodes = append(b.q.Nodes, queryir.Leaf(conn, c))
	return nil
}

// Nested wraps the conditions fn adds in a group joined by conn.
//
// If fn returns an error the group and everything fn added are discarded.
// A group left empty is dropped.
func (b *Builder) Nested(conn queryir.Connective, fn func(*Builder) error) error {
	if conn == "" {
		conn = queryir.And
	}
	if !conn.Valid() {
		return queryir.NewUnsupportedError(b.d.Name, "unknown connective %q", conn)
	}

	mark := len(b.q.Nodes)
	b.q.Nodes = append(b.q.Nodes, queryir.Open(conn))

	if err := fn(b); err != nil {
		b.q.Nodes = b.q.Nodes[:mark]
		return err
	}
	if len(b.q.Nodes) == mark+1 {
		b.q.Nodes = b.q.Nodes[:mark]
		return nil
	}
	b.q.Nodes = append(b.q.Nodes, queryir.Close())
	return nil
}

// AddOrderBy adds an ORDER BY term. nulls may be NullsDefault.
func (b *Builder) AddOrderBy(column string, dir queryir.Direction, nulls queryir.NullsOrder) *Builder {
	b.q.Orders = append(b.q.Orders, queryir.Order{Column: column, Dir: direction(dir), Nulls: nulls})
	return b
}

// AddOrderByExpr adds an ORDER BY term over a raw expression.
func (b *Builder) AddOrderByExpr(column, expr string, dir queryir.Direction, nulls queryir.NullsOrder) *Builder {
	b.q.Orders = append(b.q.Orders, queryir.Order{Column: column, Expr: expr, Dir: direction(dir), Nulls: nulls})
	return b
}

func direction(dir queryir.Direction) queryir.Direction {
	if dir == "" {
		return queryir.Asc
	}
	return dir
}

// AddGroupBy adds GROUP BY columns.
func (b *Builder) AddGroupBy(columns ...string) *Builder {
	for _, c := range columns {
		b.q.Groups = append(b.q.Groups, queryir.GroupBy{Column: c})
	}
	return b
}

// AddGroupByExpr adds a GROUP BY term over a raw expression.
func (b *Builder) AddGroupByExpr(column, expr string) *Builder {
	b.q.Groups = append(b.q.Groups, queryir.GroupBy{Column: column, Expr: expr})
	return b
}

// SetDuplicateKey sets the insert collision strategy.
func (b *Builder) SetDuplicateKey(k queryir.DuplicateKey) *Builder {
	b.q.Duplicate = k
	return b
}

// SetPrimaryKey names the key columns used by upsert forms that need them.
func (b *Builder) SetPrimaryKey(columns ...string) *Builder {
	b.q.PrimaryKey = append([]string(nil), columns...)
	return b
}

// AllowEmptyWhere permits UPDATE and DELETE without conditions.
func (b *Builder) AllowEmptyWhere(allow bool) *Builder {
	b.q.AllowEmptyWhere = allow
	return b
}

// Delimited forces identifier quoting on relational targets.
func (b *Builder) Delimited(on bool) *Builder {
	b.q.Delimited = on
	return b
}

// BuildSelect compiles the accumulated state as a SELECT.
func (b *Builder) BuildSelect() (command.Bound, error) {
	return b.Build(queryir.OpSelect)
}

// BuildInsert compiles the accumulated rows as an INSERT.
func (b *Builder) BuildInsert() (command.Bound, error) {
	return b.Build(queryir.OpInsert)
}

// BuildUpdate compiles the accumulated SET list and conditions as an UPDATE.
func (b *Builder) BuildUpdate() (command.Bound, error) {
	return b.Build(queryir.OpUpdate)
}

// BuildDelete compiles the accumulated conditions as a DELETE.
func (b *Builder) BuildDelete() (command.Bound, error) {
	return b.Build(queryir.OpDelete)
}

// Build compiles a snapshot of the builder for op.
func (b *Builder) Build(op queryir.Operation) (command.Bound, error) {
	if !op.Valid() {
		return command.Bound{}, queryir.NewUnsupportedError(b.d.Name, "unknown operation %q", op)
	}

	q := b.q.Clone()
	q.Operation = op

	switch b.d.Family {
	case dialect.Relational:
		return querysql.Build(b.d, q)
	case dialect.Document:
		return querydoc.Build(b.d, q)
	case dialect.Search:
		return querysearch.Build(b.d, q)
	}
	return command.Bound{}, queryir.NewUnsupportedError(b.d.Name, "no builder for family %s", b.d.Family)
}

// BuildPage compiles a SELECT limited to rows [start, start+size).
func (b *Builder) BuildPage(start, size int64) (command.Bound, error) {
	sel, err := b.BuildSelect()
	if err != nil {
		return command.Bound{}, err
	}
	return paging.Page(b.d, sel, start, size)
}

// BuildCount compiles a SELECT counting the matching rows.
func (b *Builder) BuildCount() (command.Bound, error) {
	sel, err := b.BuildSelect()
	if err != nil {
		return command.Bound{}, err
	}
	return paging.Count(b.d, sel)
}
