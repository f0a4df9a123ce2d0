package querysql

import (
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Update compiles an UPDATE. SET arguments precede WHERE arguments.
// A nil value without an expression renders "col = NULL" and binds nothing.
func Update(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.update()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpUpdate, err)
	}
	return command.New(queryir.OpUpdate, text, r.b.Args()), nil
}

func (r *renderer) update() (string, error) {
	table, err := r.table()
	if err != nil {
		return "", err
	}
	if err := render.CheckSets(r.q); err != nil {
		return "", err
	}
	if err := render.CheckWhere(r.q); err != nil {
		return "", err
	}

	sets := make([]string, len(r.q.Sets))
	for i, m := range r.q.Sets {
		if m.Value == nil && m.Expr == "" {
			sets[i] = r.ident(m.Column) + " = NULL"
			continue
		}
		sets[i] = r.ident(m.Column) + " = " + r.b.BindExpr(m.Expr, m.Value)
	}

	where, err := r.where()
	if err != nil {
		return "", err
	}

	text := "UPDATE " + table + " SET " + strings.Join(sets, ", ")
	if where != "" {
		text += " WHERE " + where
	}
	return text, nil
}
