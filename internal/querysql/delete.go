package querysql

import (
	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Delete compiles a DELETE.
func Delete(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.deleteFrom()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpDelete, err)
	}
	return command.New(queryir.OpDelete, text, r.b.Args()), nil
}

func (r *renderer) deleteFrom() (string, error) {
	table, err := r.table()
	if err != nil {
		return "", err
	}
	if err := render.CheckWhere(r.q); err != nil {
		return "", err
	}

	where, err := r.where()
	if err != nil {
		return "", err
	}

	text := "DELETE FROM " + table
	if where != "" {
		text += " WHERE " + where
	}
	return text, nil
}
