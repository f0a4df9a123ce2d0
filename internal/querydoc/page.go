package querydoc

import (
	"strconv"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

// Page appends a cursor window to a find built by Select. The window is
// written as literals; the find's arguments are kept unchanged.
//
//	db.coll.find({...}).skip(20).limit(10)
func Page(d *dialect.Dialect, cmd command.Bound, start, size int64) (command.Bound, error) {
	if _, ok := cmd.Select(); !ok {
		return command.Bound{}, queryir.NewUnsupportedError(d.Name, "page requires a find built by this package")
	}

	text := cmd.Text()
	if start > 0 {
		text += ".skip(" + strconv.FormatInt(start, 10) + ")"
	}
	text += ".limit(" + strconv.FormatInt(size, 10) + ")"
	return command.New(queryir.OpSelect, text, cmd.Args()), nil
}

// Count derives a countDocuments over the find's filter.
//
//	db.coll.countDocuments({age: { $gt: ? }})
func Count(d *dialect.Dialect, cmd command.Bound) (command.Bound, error) {
	parts, ok := cmd.Select()
	if !ok {
		return command.Bound{}, queryir.NewUnsupportedError(d.Name, "count requires a find built by this package")
	}
	text := parts.Target + ".countDocuments({" + parts.Filter + "})"
	return command.New(queryir.OpSelect, text, cmd.Args()), nil
}
