package querysearch

import (
	"strconv"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

// Page rewrites a _search built by Select with a from/size window. The
// window is written as literals; the search's arguments are kept unchanged.
//
//	POST /idx/_search {"query": ..., "from": 20, "size": 10}
func Page(d *dialect.Dialect, cmd command.Bound, start, size int64) (command.Bound, error) {
	parts, ok := cmd.Select()
	if !ok {
		return command.Bound{}, queryir.NewUnsupportedError(d.Name, "page requires a _search built by this package")
	}

	var window []string
	if start > 0 {
		window = append(window, `"from": `+strconv.FormatInt(start, 10))
	}
	window = append(window, `"size": `+strconv.FormatInt(size, 10))
	return command.New(queryir.OpSelect, assemble(parts, window...), cmd.Args()), nil
}

// Count derives a _count request over the search's query. Projection and
// sort are dropped.
//
//	POST /idx/_count {"query": ...}
func Count(d *dialect.Dialect, cmd command.Bound) (command.Bound, error) {
	parts, ok := cmd.Select()
	if !ok {
		return command.Bound{}, queryir.NewUnsupportedError(d.Name, "count requires a _search built by this package")
	}
	text := request(parts.Target+"/_count", []string{`"query": ` + parts.Filter})
	return command.New(queryir.OpSelect, text, cmd.Args()), nil
}
