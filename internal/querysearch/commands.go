package querysearch

import (
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Select compiles a _search request:
//
//	POST /my_index/my_type/_search {"query": { "bool": { "must": [...] } }, "_source": ["name"], "sort": [...]}
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
		return p, queryir.NewUnsupportedError(r.d.Name, "GROUP BY is not supported by _search")
	}
	if p.Target, err = r.base(); err != nil {
		return p, err
	}
	if p.Filter, err = r.query(true); err != nil {
		return p, err
	}
	if p.Projection, err = r.source(); err != nil {
		return p, err
	}
	if p.Order, err = r.sort(); err != nil {
		return p, err
	}
	return p, nil
}

// assemble writes the request line and body. extra members (paging) are
// appended after the rendered ones.
func assemble(p command.SelectParts, extra ...string) string {
	members := []string{`"query": ` + p.Filter}
	if p.Projection != "" {
		members = append(members, `"_source": [`+p.Projection+`]`)
	}
	if p.Order != "" {
		members = append(members, `"sort": [`+p.Order+`]`)
	}
	members = append(members, extra...)
	return request(p.Target+"/_search", members)
}

func request(path string, members []string) string {
	return "POST " + path + " {" + strings.Join(members, ", ") + "}"
}

func (r *renderer) source() (string, error) {
	cols := make([]string, 0, len(r.q.Projections))
	for _, p := range r.q.Projections {
		if err := r.noExpr("projection", p.Column, p.Expr); err != nil {
			return "", err
		}
		if p.Column == "*" {
			return "", nil
		}
		cols = append(cols, jsonString(p.Column))
	}
	return strings.Join(cols, ", "), nil
}

// sort renders the sort array. NULLS placement maps onto "missing".
func (r *renderer) sort() (string, error) {
	terms := make([]string, 0, len(r.q.Orders))
	for _, o := range r.q.Orders {
		if err := r.noExpr("order", o.Column, o.Expr); err != nil {
			return "", err
		}
		dir := "asc"
		if o.Dir == queryir.Desc {
			dir = "desc"
		}
		body := `"order": "` + dir + `"`
		switch o.Nulls {
		case queryir.NullsFirst:
			body += `, "missing": "_first"`
		case queryir.NullsLast:
			body += `, "missing": "_last"`
		}
		terms = append(terms, `{ `+jsonString(o.Column)+`: { `+body+` } }`)
	}
	return strings.Join(terms, ", "), nil
}

// Insert compiles a single-document index request.
//
//	POST /my_index/my_type {"name": ?, "age": ?}
//	POST /my_index/_doc {"name": ?, "age": ?}
func Insert(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.insert()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpInsert, err)
	}
	return command.New(queryir.OpInsert, text, r.b.Args()), nil
}

func (r *renderer) insert() (string, error) {
	path, err := r.writePath()
	if err != nil {
		return "", err
	}
	if _, err := render.Columns(r.q); err != nil {
		return "", err
	}
	if len(r.q.Rows) > 1 {
		return "", queryir.NewCapabilityError(r.d.Name, "multi-row insert is not supported; index one document per command")
	}
	if s := r.q.DuplicateStrategy(); !r.d.Supports(s) {
		return "", queryir.NewCapabilityError(r.d.Name, "duplicate strategy %q is not supported", s)
	}
	return "POST " + path + " {" + r.document(r.q.Rows[0]) + "}", nil
}

func (r *renderer) document(row []queryir.Mutation) string {
	fields := make([]string, len(row))
	for i, m := range row {
		value := "null"
		if m.Value != nil || m.Expr != "" {
			value = r.b.BindExpr(m.Expr, m.Value)
		}
		fields[i] = jsonString(m.Column) + ": " + value
	}
	return strings.Join(fields, ", ")
}

// Update compiles an _update_by_query whose script merges the SET document
// into every matching source. Query arguments precede SET arguments.
func Update(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.update()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpUpdate, err)
	}
	return command.New(queryir.OpUpdate, text, r.b.Args()), nil
}

func (r *renderer) update() (string, error) {
	base, err := r.base()
	if err != nil {
		return "", err
	}
	if err := render.CheckSets(r.q); err != nil {
		return "", err
	}
	if err := render.CheckWhere(r.q); err != nil {
		return "", err
	}

	query, err := r.query(false)
	if err != nil {
		return "", err
	}
	var members []string
	if query != "" {
		members = append(members, `"query": `+query)
	}
	script := `"script": { "source": "ctx._source.putAll(params.data)", "lang": "painless", "params": { "data": {` +
		r.document(r.q.Sets) + `} } }`
	members = append(members, script)
	return request(base+"/_update_by_query", members), nil
}

// Delete compiles a _delete_by_query.
func Delete(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.deleteByQuery()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpDelete, err)
	}
	return command.New(queryir.OpDelete, text, r.b.Args()), nil
}

func (r *renderer) deleteByQuery() (string, error) {
	base, err := r.base()
	if err != nil {
		return "", err
	}
	if err := render.CheckWhere(r.q); err != nil {
		return "", err
	}
	query, err := r.query(true)
	if err != nil {
		return "", err
	}
	return request(base+"/_delete_by_query", []string{`"query": ` + query}), nil
}
