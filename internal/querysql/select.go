package querysql

import (
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Select compiles a SELECT.
//
//	SELECT <projection | *> FROM <table> [WHERE ...] [GROUP BY ...] [ORDER BY ...]
//
// The returned command keeps its fragments so Page and Count can derive
// variants from it.
func Select(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	parts, err := r.selectParts()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpSelect, err)
	}
	return command.NewSelect(assemble(parts, true), r.b.Args(), parts), nil
}

func (r *renderer) selectParts() (command.SelectParts, error) {
	var p command.SelectParts
	var err error

	if p.Target, err = r.table(); err != nil {
		return p, err
	}
	if p.Projection, err = r.projection(); err != nil {
		return p, err
	}
	if p.Filter, err = r.where(); err != nil {
		return p, err
	}
	if p.Group, err = r.groupBy(); err != nil {
		return p, err
	}
	if p.Order, err = r.orderBy(); err != nil {
		return p, err
	}
	return p, nil
}

// assemble joins SELECT fragments into text.
func assemble(p command.SelectParts, withOrder bool) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(p.Projection)
	sb.WriteString(" FROM ")
	sb.WriteString(p.Target)
	if p.Filter != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(p.Filter)
	}
	if p.Group != "" {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(p.Group)
	}
	if withOrder && p.Order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(p.Order)
	}
	return sb.String()
}

// projection renders the select list. An expression is aliased with its
// column name: MySQL "count(*) cnt", others "count(*) AS cnt".
func (r *renderer) projection() (string, error) {
	if len(r.q.Projections) == 0 {
		return "*", nil
	}

	cols := make([]string, 0, len(r.q.Projections))
	for _, p := range r.q.Projections {
		if p.Expr == "" {
			cols = append(cols, r.ident(p.Column))
			continue
		}
		if err := render.NoPlaceholders(r.d.Name, "projection", p.Column, p.Expr); err != nil {
			return "", err
		}
		if p.Column == "" {
			cols = append(cols, p.Expr)
			continue
		}
		cols = append(cols, p.Expr+r.d.AliasSeparator+r.ident(p.Column))
	}
	return strings.Join(cols, ", "), nil
}

// term resolves a GROUP BY or ORDER BY reference. An explicit expression
// wins; a column naming an aliased projection renders the alias where the
// dialect allows it and the projection expression otherwise.
func (r *renderer) term(clause, column, expr string, aliasOK bool) (string, error) {
	if expr != "" {
		if err := render.NoPlaceholders(r.d.Name, clause, column, expr); err != nil {
			return "", err
		}
		return expr, nil
	}
	if !aliasOK {
		for _, p := range r.q.Projections {
			if p.Column == column && p.Expr != "" {
				return p.Expr, nil
			}
		}
	}
	return r.ident(column), nil
}

func (r *renderer) groupBy() (string, error) {
	terms := make([]string, 0, len(r.q.Groups))
	for _, g := range r.q.Groups {
		t, err := r.term("group", g.Column, g.Expr, r.d.GroupByAlias)
		if err != nil {
			return "", err
		}
		terms = append(terms, t)
	}
	return strings.Join(terms, ", "), nil
}

// orderBy renders ORDER BY terms with NULLS placement:
//
//	native:    col ASC NULLS FIRST
//	IS NULL:   col IS NULL DESC, col ASC
//	CASE:      CASE WHEN col IS NULL THEN 0 ELSE 1 END ASC, col ASC
func (r *renderer) orderBy() (string, error) {
	terms := make([]string, 0, len(r.q.Orders))
	for _, o := range r.q.Orders {
		t, err := r.term("order", o.Column, o.Expr, r.d.OrderByAlias)
		if err != nil {
			return "", err
		}

		dir := string(queryir.Asc)
		if o.Dir == queryir.Desc {
			dir = string(queryir.Desc)
		}

		if o.Nulls == queryir.NullsDefault {
			terms = append(terms, t+" "+dir)
			continue
		}

		first := o.Nulls == queryir.NullsFirst
		switch r.d.Nulls {
		case dialect.NullsIsNull:
			if first {
				terms = append(terms, t+" IS NULL DESC", t+" "+dir)
			} else {
				terms = append(terms, t+" IS NULL ASC", t+" "+dir)
			}
		case dialect.NullsCase:
			if first {
				terms = append(terms, "CASE WHEN "+t+" IS NULL THEN 0 ELSE 1 END ASC", t+" "+dir)
			} else {
				terms = append(terms, "CASE WHEN "+t+" IS NULL THEN 1 ELSE 0 END ASC", t+" "+dir)
			}
		default:
			terms = append(terms, t+" "+dir+" NULLS "+string(o.Nulls))
		}
	}
	return strings.Join(terms, ", "), nil
}
