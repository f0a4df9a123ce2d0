package querydoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// DefaultDatabase is the database handle used when the table reference names
// none.
const DefaultDatabase = "db"

// Build compiles q into a document-store shell command for d.
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

// target renders "<database>.<collection>". The database is the primary
// table part, falling back to the secondary one, then to DefaultDatabase.
func (r *renderer) target() (string, error) {
	t := r.q.Table
	if err := render.CheckTable(r.d.Name, t.Tertiary); err != nil {
		return "", err
	}
	db := t.Primary
	if db == "" {
		db = t.Secondary
	}
	if db == "" {
		db = DefaultDatabase
	}
	return db + "." + t.Tertiary, nil
}

var plainKey = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// key renders a document key, quoting anything that is not a bare identifier.
func key(name string) string {
	if plainKey.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

// field collects the conditions on one key, in order.
type field struct {
	name  string
	conds []queryir.Condition
}

// filter renders the body of a filter object. Conditions on the same key are
// merged into one operator object in first-appearance order, and arguments
// are bound in the order the text is written.
//
//	age: { $gt: ?, $lte: ? }, name: ?
func (r *renderer) filter() (string, error) {
	tree, err := render.BuildTree(r.d.Name, r.q.Nodes)
	if err != nil {
		return "", err
	}
	if !tree.Flat() {
		return "", queryir.NewUnsupportedError(r.d.Name,
			"only AND-combined conditions without groups or negation are supported")
	}

	var fields []*field
	index := map[string]*field{}
	for _, it := range tree.Items {
		name := it.Leaf.ColumnExpr()
		if name == "" {
			name = it.Leaf.Column()
		}
		f, ok := index[name]
		if !ok {
			f = &field{name: name}
			index[name] = f
			fields = append(fields, f)
		}
		f.conds = append(f.conds, it.Leaf)
	}

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		text, err := r.field(f)
		if err != nil {
			return "", err
		}
		out = append(out, text)
	}
	return strings.Join(out, ", "), nil
}

func (r *renderer) field(f *field) (string, error) {
	var bare string
	var ops []string

	for _, c := range f.conds {
		switch c.Op() {
		case queryir.Eq, queryir.IsNull:
			if len(f.conds) > 1 {
				err := queryir.NewUnsupportedError(r.d.Name, "equality cannot be combined with other conditions on the same field")
				err.Column = f.name
				return "", err
			}
			if c.Op() == queryir.IsNull {
				bare = "null"
			} else {
				bare = r.b.BindExpr(c.ValueExpr(), c.Value(0))
			}
		default:
			parts, err := r.operator(c)
			if err != nil {
				return "", err
			}
			ops = append(ops, parts...)
		}
	}

	if bare != "" {
		return key(f.name) + ": " + bare, nil
	}
	return key(f.name) + ": { " + strings.Join(ops, ", ") + " }", nil
}

// operator renders the "$op: value" members contributed by one condition.
func (r *renderer) operator(c queryir.Condition) ([]string, error) {
	op := r.d.Operator(c.Op())
	bind := func(v any) string { return r.b.BindExpr(c.ValueExpr(), v) }

	switch c.Op() {
	case queryir.IsNotNull:
		return []string{"$ne: null"}, nil
	case queryir.Ne, queryir.Gt, queryir.Ge, queryir.Lt, queryir.Le:
		return []string{op + ": " + bind(c.Value(0))}, nil
	case queryir.In, queryir.NotIn:
		marks := make([]string, c.Len())
		for i, v := range c.Values() {
			marks[i] = bind(v)
		}
		return []string{op + ": [" + strings.Join(marks, ", ") + "]"}, nil
	case queryir.Between:
		return []string{"$gte: " + bind(c.Value(0)), "$lte: " + bind(c.Value(1))}, nil
	case queryir.NotBetween:
		lo := bind(c.Value(0))
		hi := bind(c.Value(1))
		return []string{"$not: { $gte: " + lo + ", $lte: " + hi + " }"}, nil
	case queryir.Like, queryir.NotLike:
		if c.ValueExpr() != "" {
			return []string{op + ": " + bind(c.Value(0))}, nil
		}
		return []string{op + ": " + regexLiteral(c.Value(0), c.Like())}, nil
	}

	return nil, queryir.NewUnsupportedError(r.d.Name, "operator %q", c.Op())
}

// regexLiteral embeds a LIKE value as an escaped regular expression literal.
// LEFT anchors at the end (ends-with), RIGHT at the start (starts-with).
func regexLiteral(v any, mode queryir.LikeMode) string {
	s := ""
	if v != nil {
		s = fmt.Sprint(v)
	}
	s = regexp.QuoteMeta(s)
	s = literalEscaper.Replace(s)

	switch mode {
	case queryir.LikeLeft:
		s += "$"
	case queryir.LikeRight:
		s = "^" + s
	}
	return "/" + s + "/"
}

// Line terminators end a regex literal, so they are escaped along with the
// delimiters and quotes.
var literalEscaper = strings.NewReplacer(
	`/`, `\/`, `'`, `\'`, `"`, `\"`, "`", "\\`",
	"\n", `\n`, "\r", `\r`, "\u2028", `\u2028`, "\u2029", `\u2029`,
)

// noExpr rejects raw expressions in clauses that address fields by name.
func (r *renderer) noExpr(clause, column, expr string) error {
	if expr == "" {
		return nil
	}
	err := queryir.NewUnsupportedError(r.d.Name, "%s expressions are not supported", clause)
	err.Column = column
	return err
}
