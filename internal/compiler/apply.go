package compiler

import (
	"fmt"

	"github.com/roach88/qforge/internal/builder"
	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

// Apply loads the document's state into b. The operation, page and count
// are not applied; they select the build call (see Compile).
//
// Apply stops at the first error. Errors are *ValidationError values that
// unwrap to the underlying build error, if any.
func (doc *Document) Apply(b *builder.Builder) error {
	b.SetTable(doc.Table.Catalog, doc.Table.Schema, doc.Table.Name)

	for _, t := range doc.Select {
		if t.Expr != "" {
			b.AddSelectExpr(t.Column, t.Expr)
		} else {
			b.AddSelect(t.Column)
		}
	}

	if err := applyNodes(b, "where", doc.Where); err != nil {
		return err
	}

	for _, t := range doc.Group {
		if t.Expr != "" {
			b.AddGroupByExpr(t.Column, t.Expr)
		} else {
			b.AddGroupBy(t.Column)
		}
	}

	for i, o := range doc.Order {
		field := fmt.Sprintf("order[%d]", i)
		dir, verr := parseDirection(field+".dir", o.Dir)
		if verr != nil {
			return verr
		}
		nulls, verr := parseNulls(field+".nulls", o.Nulls)
		if verr != nil {
			return verr
		}
		if o.Expr != "" {
			b.AddOrderByExpr(o.Column, o.Expr, dir, nulls)
		} else {
			b.AddOrderBy(o.Column, dir, nulls)
		}
	}

	for i, row := range doc.Rows {
		b.NewRow()
		for j, a := range row {
			value, verr := normalizeValue(fmt.Sprintf("rows[%d][%d].value", i, j), a.Value)
			if verr != nil {
				return verr
			}
			if a.Expr != "" {
				b.AddInsertExpr(a.Column, a.Expr, value)
			} else {
				b.AddInsert(a.Column, value)
			}
		}
	}

	for i, a := range doc.Set {
		value, verr := normalizeValue(fmt.Sprintf("set[%d].value", i), a.Value)
		if verr != nil {
			return verr
		}
		if a.Expr != "" {
			b.AddUpdateSetExpr(a.Column, a.Expr, value)
		} else {
			b.AddUpdateSet(a.Column, value)
		}
	}

	if doc.Duplicate != "" {
		k, verr := parseDuplicate("duplicate", doc.Duplicate)
		if verr != nil {
			return verr
		}
		b.SetDuplicateKey(k)
	}
	if len(doc.PrimaryKey) > 0 {
		b.SetPrimaryKey(doc.PrimaryKey...)
	}
	b.AllowEmptyWhere(doc.AllowEmptyWhere)
	b.Delimited(doc.Delimited)
	return nil
}

func applyNodes(b *builder.Builder, path string, nodes []Node) error {
	for i, n := range nodes {
		field := fmt.Sprintf("%s[%d]", path, i)
		conn, verr := parseConnective(field+".connective", n.Connective)
		if verr != nil {
			return verr
		}

		if n.IsGroup() {
			if verr := n.checkGroup(field); verr != nil {
				return verr
			}
			err := b.Nested(conn, func(g *builder.Builder) error {
				return applyNodes(g, field+".group", n.Group)
			})
			if err != nil {
				return err
			}
			continue
		}

		c, verr := n.condition(field)
		if verr != nil {
			return verr
		}
		if err := b.Where(conn, c); err != nil {
			return &ValidationError{Field: field, Code: ErrArity, Message: buildMessage(err), Err: err}
		}
	}
	return nil
}

// Compile builds doc for d. A page or count request derives the matching
// SELECT variant.
func Compile(doc *Document, d *dialect.Dialect) (command.Bound, error) {
	op, verr := parseOperation("operation", doc.Operation)
	if verr != nil {
		return command.Bound{}, verr
	}

	b := builder.New(d)
	if err := doc.Apply(b); err != nil {
		return command.Bound{}, err
	}

	switch {
	case doc.Page != nil && doc.Count:
		return command.Bound{}, &ValidationError{Field: "count", Code: ErrInvalidPage, Message: "page and count are mutually exclusive"}
	case (doc.Page != nil || doc.Count) && op != queryir.OpSelect:
		return command.Bound{}, &ValidationError{Field: "page", Code: ErrInvalidPage,
			Message: fmt.Sprintf("page and count apply to select, not %s", op)}
	case doc.Page != nil:
		return b.BuildPage(doc.Page.Start, doc.Page.Size)
	case doc.Count:
		return b.BuildCount()
	}
	return b.Build(op)
}

// Resolve picks the dialect for doc: override when set, then the
// document's own dialect, then fallback.
func Resolve(doc *Document, override, fallback string) (*dialect.Dialect, error) {
	name := override
	if name == "" {
		name = doc.Dialect
	}
	if name == "" {
		name = fallback
	}
	if name == "" {
		return nil, &ValidationError{Field: "dialect", Code: ErrUnknownDialect, Message: "no dialect given; set --dialect or the document's dialect field"}
	}
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, &ValidationError{Field: "dialect", Code: ErrUnknownDialect, Message: err.Error(), Err: err}
	}
	return d, nil
}
