package querysearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Build compiles q into a search-index REST command for d. Both index shapes
// share this implementation; d.Search decides the path segments.
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

type renderer struct {
	d *dialect.Dialect
	q queryir.Query
	b render.Binder
}

func newRenderer(d *dialect.Dialect, q queryir.Query) *renderer {
	return &renderer{d: d, q: q}
}

// base renders "/<index>[/<type>]". The index is the tertiary table part,
// falling back to the primary one; the type segment is only written by
// typed variants.
func (r *renderer) base() (string, error) {
	t := r.q.Table
	index := t.Tertiary
	if index == "" {
		index = t.Primary
	}
	if err := render.CheckTable(r.d.Name, index); err != nil {
		return "", err
	}
	path := "/" + index
	if r.d.Search.TypeSegment && t.Secondary != "" {
		path += "/" + t.Secondary
	}
	return path, nil
}

// writePath renders the document endpoint used by inserts.
func (r *renderer) writePath() (string, error) {
	t := r.q.Table
	index := t.Tertiary
	if index == "" {
		index = t.Primary
	}
	if err := render.CheckTable(r.d.Name, index); err != nil {
		return "", err
	}
	segment := r.d.Search.WriteSegment
	if r.d.Search.TypeSegment && t.Secondary != "" {
		segment = t.Secondary
	}
	if segment == "" {
		segment = "_doc"
	}
	return "/" + index + "/" + segment, nil
}

// query renders the "query" clause. An empty condition list matches all
// documents unless matchAll is false, in which case it renders nothing.
func (r *renderer) query(matchAll bool) (string, error) {
	tree, err := render.BuildTree(r.d.Name, r.q.Nodes)
	if err != nil {
		return "", err
	}
	if len(tree.Items) == 0 {
		if matchAll {
			return `{ "match_all": {} }`, nil
		}
		return "", nil
	}
	return r.level(tree, true)
}

// level renders one nesting level. AND binds tighter than OR: the level is
// split into OR-separated terms, each term a bool of must and must_not
// clauses, and multiple terms are combined with should.
func (r *renderer) level(g *render.Group, root bool) (string, error) {
	var terms [][]render.Item
	for i, it := range g.Items {
		if i == 0 || it.Connective.Base() == queryir.Or {
			terms = append(terms, nil)
		}
		terms[len(terms)-1] = append(terms[len(terms)-1], it)
	}

	if len(terms) == 1 {
		return r.term(terms[0], root)
	}

	clauses := make([]string, len(terms))
	for i, t := range terms {
		c, err := r.term(t, false)
		if err != nil {
			return "", err
		}
		clauses[i] = c
	}
	return `{ "bool": { "should": [` + strings.Join(clauses, ", ") + `], "minimum_should_match": 1 } }`, nil
}

// term renders AND-joined items in insertion order. Negated items that all
// follow the positive ones go to bool.must_not; otherwise each negated item
// is wrapped in place so that arguments follow the text.
func (r *renderer) term(items []render.Item, forceBool bool) (string, error) {
	inline := false
	seenNegated := false
	for _, it := range items {
		if it.Connective.Negated() {
			seenNegated = true
		} else if seenNegated {
			inline = true
		}
	}

	var must, excluded []string
	for _, it := range items {
		c, err := r.item(it)
		if err != nil {
			return "", err
		}
		switch {
		case !it.Connective.Negated():
			must = append(must, c)
		case inline:
			must = append(must, mustNot(c))
		default:
			excluded = append(excluded, c)
		}
	}

	if !forceBool && len(must) == 1 && len(excluded) == 0 {
		return must[0], nil
	}

	var members []string
	if len(must) > 0 {
		members = append(members, `"must": [`+strings.Join(must, ", ")+`]`)
	}
	if len(excluded) > 0 {
		members = append(members, `"must_not": [`+strings.Join(excluded, ", ")+`]`)
	}
	return `{ "bool": { ` + strings.Join(members, ", ") + ` } }`, nil
}

func (r *renderer) item(it render.Item) (string, error) {
	if it.IsGroup() {
		return r.level(it.Group, false)
	}
	return r.clause(it.Leaf)
}

// clause renders one condition:
//
//	EQ          { "match": { "f": ? } }
//	GT..LE      { "range": { "f": { "gt": ? } } }
//	BETWEEN     { "range": { "f": { "gte": ?, "lte": ? } } }
//	IN          { "terms": { "f": [?, ?] } }
//	LIKE        { "match": { "f": ? } }, prefix for RIGHT, wildcard for LEFT
//	IS_NOT_NULL { "exists": { "field": "f" } }
//
// NE, NOT_IN, NOT_BETWEEN, NOT_LIKE and IS_NULL wrap the positive clause in
// bool.must_not.
func (r *renderer) clause(c queryir.Condition) (string, error) {
	name := c.ColumnExpr()
	if name == "" {
		name = c.Column()
	}
	f := jsonString(name)
	bind := func(v any) string { return r.b.BindExpr(c.ValueExpr(), v) }

	switch c.Op() {
	case queryir.Eq:
		return `{ "match": { ` + f + `: ` + bind(c.Value(0)) + ` } }`, nil
	case queryir.Ne:
		return mustNot(`{ "term": { ` + f + `: ` + bind(c.Value(0)) + ` } }`), nil
	case queryir.Gt, queryir.Ge, queryir.Lt, queryir.Le:
		return `{ "range": { ` + f + `: { "` + r.d.Operator(c.Op()) + `": ` + bind(c.Value(0)) + ` } } }`, nil
	case queryir.Between, queryir.NotBetween:
		lo := bind(c.Value(0))
		hi := bind(c.Value(1))
		s := `{ "range": { ` + f + `: { "gte": ` + lo + `, "lte": ` + hi + ` } } }`
		if c.Op() == queryir.NotBetween {
			s = mustNot(s)
		}
		return s, nil
	case queryir.In, queryir.NotIn:
		marks := make([]string, c.Len())
		for i, v := range c.Values() {
			marks[i] = bind(v)
		}
		s := `{ "terms": { ` + f + `: [` + strings.Join(marks, ", ") + `] } }`
		if c.Op() == queryir.NotIn {
			s = mustNot(s)
		}
		return s, nil
	case queryir.Like, queryir.NotLike:
		s := r.like(f, c)
		if c.Op() == queryir.NotLike {
			s = mustNot(s)
		}
		return s, nil
	case queryir.IsNotNull:
		return `{ "exists": { "field": ` + f + ` } }`, nil
	case queryir.IsNull:
		return mustNot(`{ "exists": { "field": ` + f + ` } }`), nil
	}

	return "", queryir.NewUnsupportedError(r.d.Name, "operator %q", c.Op())
}

func mustNot(clause string) string {
	return `{ "bool": { "must_not": ` + clause + ` } }`
}

// like renders a LIKE by wildcard placement. DEFAULT is a full-text match,
// RIGHT (starts-with) a prefix query and LEFT (ends-with) a wildcard query
// whose argument is the value behind a leading "*".
func (r *renderer) like(f string, c queryir.Condition) string {
	switch c.Like() {
	case queryir.LikeRight:
		return `{ "prefix": { ` + f + `: ` + r.b.BindExpr(c.ValueExpr(), c.Value(0)) + ` } }`
	case queryir.LikeLeft:
		var value string
		if c.ValueExpr() != "" {
			value = r.b.BindExpr(c.ValueExpr(), c.Value(0))
		} else {
			value = r.b.Bind(endsWith(c.Value(0)))
		}
		return `{ "wildcard": { ` + f + `: ` + value + ` } }`
	}
	return `{ "match": { ` + f + `: ` + r.b.BindExpr(c.ValueExpr(), c.Value(0)) + ` } }`
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func endsWith(v any) string {
	if v == nil {
		return "*"
	}
	return "*" + wildcardEscaper.Replace(fmt.Sprint(v))
}

// jsonString encodes s as a JSON string without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func (r *renderer) noExpr(clause, column, expr string) error {
	if expr == "" {
		return nil
	}
	err := queryir.NewUnsupportedError(r.d.Name, "%s expressions are not supported", clause)
	err.Column = column
	return err
}
