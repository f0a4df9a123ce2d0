package querysql

import (
	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

// Page derives a row-limited variant of a SELECT built by Select.
// The select's arguments are kept unchanged and in order; paging arguments
// follow them.
//
//	postgres, sqlite: ... LIMIT ? [OFFSET ?]
//	mysql:            ... LIMIT ? | LIMIT ?, ?
//	sqlserver:        ... OFFSET ? ROWS FETCH NEXT ? ROWS ONLY  (requires ORDER BY)
//	oracle:           SELECT * FROM ( SELECT TMP.*, ROWNUM ROW_ID FROM ( ... ) TMP WHERE ROWNUM <= ? ) WHERE ROW_ID > ?
func Page(d *dialect.Dialect, cmd command.Bound, start, size int64) (command.Bound, error) {
	parts, ok := cmd.Select()
	if !ok {
		return command.Bound{}, queryir.NewUnsupportedError(d.Name, "page requires a select built by this package")
	}

	text := cmd.Text()
	args := cmd.Args()

	switch d.Page {
	case dialect.PageLimitOffset:
		if start > 0 {
			text += " LIMIT ? OFFSET ?"
			args = append(args, size, start)
		} else {
			text += " LIMIT ?"
			args = append(args, size)
		}
	case dialect.PageLimitComma:
		if start > 0 {
			text += " LIMIT ?, ?"
			args = append(args, start, size)
		} else {
			text += " LIMIT ?"
			args = append(args, size)
		}
	case dialect.PageOffsetFetch:
		if parts.Order == "" {
			return command.Bound{}, queryir.NewCapabilityError(d.Name, "OFFSET/FETCH paging requires ORDER BY")
		}
		text += " OFFSET ? ROWS FETCH NEXT ? ROWS ONLY"
		args = append(args, start, size)
	case dialect.PageRowNum:
		text = "SELECT * FROM ( SELECT TMP.*, ROWNUM ROW_ID FROM ( " + text + " ) TMP WHERE ROWNUM <= ? ) WHERE ROW_ID > ?"
		args = append(args, start+size, start)
	default:
		return command.Bound{}, queryir.NewCapabilityError(d.Name, "no relational paging form")
	}

	return command.New(queryir.OpSelect, text, args), nil
}

// Count derives a row-count variant of a SELECT built by Select. ORDER BY is
// dropped; grouped selects are counted through a derived table.
//
//	SELECT COUNT(*) FROM t WHERE ...
//	SELECT COUNT(*) FROM (SELECT ... GROUP BY ...) TEMP_T
func Count(d *dialect.Dialect, cmd command.Bound) (command.Bound, error) {
	parts, ok := cmd.Select()
	if !ok {
		return command.Bound{}, queryir.NewUnsupportedError(d.Name, "count requires a select built by this package")
	}

	var text string
	if parts.Group != "" {
		text = "SELECT COUNT(*) FROM (" + assemble(parts, false) + ") TEMP_T"
	} else {
		counted := parts
		counted.Projection = "COUNT(*)"
		text = assemble(counted, false)
	}

	return command.New(queryir.OpSelect, text, cmd.Args()), nil
}
