package querydoc

import (
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Select compiles a find:
//
//	db.coll.find({age: { $gt: ? }}, {name: 1})
//	db.coll.find({}).sort({name: 1, age: -1})
func Select(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	parts, err := r.selectParts()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpSelect, err)
	}
	return command.NewSelect(assemble(parts), r.b.Args(), parts), nil
}

func (r *renderer) selectParts() (command.SelectParts, error) {
	var p command.SelectParts
	var err error

	if len(r.q.Groups) > 0 {
		return p, queryir.NewUnsupportedError(r.d.Name, "GROUP BY is not supported by find")
	}
	if p.Target, err = r.target(); err != nil {
		return p, err
	}
	if p.Filter, err = r.filter(); err != nil {
		return p, err
	}
	if p.Projection, err = r.projection(); err != nil {
		return p, err
	}
	if p.Order, err = r.sort(); err != nil {
		return p, err
	}
	return p, nil
}

func assemble(p command.SelectParts) string {
	text := p.Target + ".find({" + p.Filter + "}"
	if p.Projection != "" {
		text += ", {" + p.Projection + "}"
	}
	text += ")"
	if p.Order != "" {
		text += ".sort({" + p.Order + "})"
	}
	return text
}

func (r *renderer) projection() (string, error) {
	cols := make([]string, 0, len(r.q.Projections))
	for _, p := range r.q.Projections {
		if err := r.noExpr("projection", p.Column, p.Expr); err != nil {
			return "", err
		}
		if p.Column == "*" {
			return "", nil
		}
		cols = append(cols, key(p.Column)+": 1")
	}
	return strings.Join(cols, ", "), nil
}

// sort renders the sort document. The store places nulls first ascending and
// last descending; any other placement is a capability error.
func (r *renderer) sort() (string, error) {
	terms := make([]string, 0, len(r.q.Orders))
	for _, o := range r.q.Orders {
		if err := r.noExpr("order", o.Column, o.Expr); err != nil {
			return "", err
		}
		desc := o.Dir == queryir.Desc
		if (o.Nulls == queryir.NullsLast && !desc) || (o.Nulls == queryir.NullsFirst && desc) {
			return "", queryir.NewCapabilityError(r.d.Name, "NULLS %s with %s order is not expressible", o.Nulls, o.Dir)
		}
		dir := "1"
		if desc {
			dir = "-1"
		}
		terms = append(terms, key(o.Column)+": "+dir)
	}
	return strings.Join(terms, ", "), nil
}

// Insert compiles an insertMany with one document per row.
func Insert(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.insert()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpInsert, err)
	}
	return command.New(queryir.OpInsert, text, r.b.Args()), nil
}

func (r *renderer) insert() (string, error) {
	target, err := r.target()
	if err != nil {
		return "", err
	}
	if _, err := render.Columns(r.q); err != nil {
		return "", err
	}
	if s := r.q.DuplicateStrategy(); !r.d.Supports(s) {
		return "", queryir.NewCapabilityError(r.d.Name, "duplicate strategy %q is not supported", s)
	}

	docs := make([]string, len(r.q.Rows))
	for i, row := range r.q.Rows {
		docs[i] = "{" + r.document(row) + "}"
	}
	return target + ".insertMany([" + strings.Join(docs, ", ") + "])", nil
}

// document renders "a: ?, b: null" for a list of assignments.
func (r *renderer) document(row []queryir.Mutation) string {
	fields := make([]string, len(row))
	for i, m := range row {
		value := "null"
		if m.Value != nil || m.Expr != "" {
			value = r.b.BindExpr(m.Expr, m.Value)
		}
		fields[i] = key(m.Column) + ": " + value
	}
	return strings.Join(fields, ", ")
}

// Update compiles an updateMany with a $set document. Filter arguments
// precede SET arguments, matching the text.
func Update(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.update()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpUpdate, err)
	}
	return command.New(queryir.OpUpdate, text, r.b.Args()), nil
}

func (r *renderer) update() (string, error) {
	target, err := r.target()
	if err != nil {
		return "", err
	}
	if err := render.CheckSets(r.q); err != nil {
		return "", err
	}
	if err := render.CheckWhere(r.q); err != nil {
		return "", err
	}

	filter, err := r.filter()
	if err != nil {
		return "", err
	}
	return target + ".updateMany({" + filter + "}, { $set: {" + r.document(r.q.Sets) + "} })", nil
}

// Delete compiles a deleteMany.
func Delete(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.deleteMany()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpDelete, err)
	}
	return command.New(queryir.OpDelete, text, r.b.Args()), nil
}

func (r *renderer) deleteMany() (string, error) {
	target, err := r.target()
	if err != nil {
		return "", err
	}
	if err := render.CheckWhere(r.q); err != nil {
		return "", err
	}
	filter, err := r.filter()
	if err != nil {
		return "", err
	}
	return target + ".deleteMany({" + filter + "})", nil
}
