// Package paging derives page and count variants of a compiled SELECT.
//
// The variant reuses the select's arguments unchanged and in order; page
// arguments, when the target binds them, are appended after. The rewrite is
// chosen by the dialect family:
//
//	relational: LIMIT/OFFSET, LIMIT m,n, OFFSET/FETCH or ROWNUM wrapping
//	document:   .skip(n).limit(n) and countDocuments
//	search:     "from"/"size" in the body and the _count endpoint
package paging

import (
	"fmt"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/querydoc"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/querysearch"
	"github.com/roach88/qforge/internal/querysql"
)

// Page returns the rows [start, start+size) of cmd.
//
// size must be positive and start non-negative; cmd must be a SELECT built
// for d.
func Page(d *dialect.Dialect, cmd command.Bound, start, size int64) (command.Bound, error) {
	if size <= 0 {
		return command.Bound{}, wrap("page", queryir.NewArityError("", "page size must be positive, got %d", size).WithDialect(d.Name))
	}
	if start < 0 {
		return command.Bound{}, wrap("page", queryir.NewArityError("", "page start must not be negative, got %d", start).WithDialect(d.Name))
	}
	if err := checkSelect(d, cmd); err != nil {
		return command.Bound{}, wrap("page", err)
	}

	var out command.Bound
	var err error
	switch d.Family {
	case dialect.Relational:
		out, err = querysql.Page(d, cmd, start, size)
	case dialect.Document:
		out, err = querydoc.Page(d, cmd, start, size)
	case dialect.Search:
		out, err = querysearch.Page(d, cmd, start, size)
	default:
		err = queryir.NewCapabilityError(d.Name, "no paging form for family %s", d.Family)
	}
	if err != nil {
		return command.Bound{}, wrap("page", err)
	}
	return out, nil
}

// Count returns a variant of cmd that counts the matching rows.
func Count(d *dialect.Dialect, cmd command.Bound) (command.Bound, error) {
	if err := checkSelect(d, cmd); err != nil {
		return command.Bound{}, wrap("count", err)
	}

	var out command.Bound
	var err error
	switch d.Family {
	case dialect.Relational:
		out, err = querysql.Count(d, cmd)
	case dialect.Document:
		out, err = querydoc.Count(d, cmd)
	case dialect.Search:
		out, err = querysearch.Count(d, cmd)
	default:
		err = queryir.NewCapabilityError(d.Name, "no count form for family %s", d.Family)
	}
	if err != nil {
		return command.Bound{}, wrap("count", err)
	}
	return out, nil
}

func checkSelect(d *dialect.Dialect, cmd command.Bound) error {
	if _, ok := cmd.Select(); !ok {
		return queryir.NewUnsupportedError(d.Name, "%s command is not a select built by qforge", describe(cmd))
	}
	return nil
}

func describe(cmd command.Bound) string {
	if cmd.Operation() == "" {
		return "empty"
	}
	return string(cmd.Operation())
}

func wrap(verb string, err error) error {
	return fmt.Errorf("%s: %w", verb, err)
}
