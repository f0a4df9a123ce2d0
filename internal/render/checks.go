package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/queryir"
)

// NoPlaceholders rejects a raw projection, order or group expression that
// contains value placeholders; those clauses have no values to bind.
func NoPlaceholders(dialectName, clause, column, expr string) error {
	if command.CountPlaceholders(expr) == 0 {
		return nil
	}
	err := queryir.NewUnsupportedError(dialectName, "%s expression %q must not contain placeholders", clause, expr)
	err.Column = column
	return err
}

// Columns returns the insert column list shared by every row.
//
// Rows must be non-empty and name the same columns in the same order.
func Columns(q queryir.Query) ([]string, error) {
	if len(q.Rows) == 0 {
		return nil, queryir.NewArityError("", "insert requires at least one row")
	}

	var cols []string
	for i, row := range q.Rows {
		if len(row) == 0 {
			return nil, queryir.NewArityError("", "insert row %d has no columns", i)
		}
		names := make([]string, len(row))
		for j, m := range row {
			names[j] = m.Column
		}
		if i == 0 {
			cols = names
			continue
		}
		if !slices.Equal(cols, names) {
			return nil, queryir.NewArityError("", "insert row %d has columns (%s), want (%s)",
				i, strings.Join(names, ", "), strings.Join(cols, ", "))
		}
	}
	return cols, nil
}

// CheckSets rejects an UPDATE with nothing to set.
func CheckSets(q queryir.Query) error {
	if len(q.Sets) == 0 {
		return queryir.NewArityError("", "update requires at least one SET entry")
	}
	return nil
}

// CheckWhere rejects an UPDATE or DELETE without conditions unless the query
// allows it.
func CheckWhere(q queryir.Query) error {
	if q.AllowEmptyWhere || q.HasConditions() {
		return nil
	}
	return queryir.NewEmptyWhereError(q.Operation)
}

// CheckTable rejects a query without a target name.
func CheckTable(dialectName, name string) error {
	if name == "" {
		return queryir.NewUnsupportedError(dialectName, "table name is required")
	}
	return nil
}

// Errorf wraps err with the operation being built and tags build errors
// with the dialect.
func Errorf(dialectName string, op queryir.Operation, err error) error {
	if be, ok := err.(*queryir.BuildError); ok && be.Dialect == "" {
		err = be.WithDialect(dialectName)
	}
	return fmt.Errorf("build %s: %w", op, err)
}
