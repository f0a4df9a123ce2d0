package command

import (
	"bytes"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/qforge/internal/queryir"
)

// SelectParts are the rendered fragments of a SELECT, kept so that page and
// count variants can be derived without reparsing the text.
//
// Fragment meaning depends on the target family:
//
//	relational: FROM target, select list, WHERE body, GROUP BY body, ORDER BY body
//	document:   "db.coll", projection object, filter object body, -, sort object body
//	search:     request path prefix, "_source" array, query clause, -, "sort" array
type SelectParts struct {
	Target     string
	Projection string
	Filter     string
	Group      string
	Order      string
}

// Bound is a compiled command: the target text and its positional arguments.
//
// Bound is immutable. Text uses '?' for every value placeholder regardless
// of target; Rebind converts to a dialect's native bind variables.
type Bound struct {
	op    queryir.Operation
	text  string
	args  []any
	parts *SelectParts
}

// New creates a bound command. The args slice is copied.
func New(op queryir.Operation, text string, args []any) Bound {
	return Bound{op: op, text: text, args: copyArgs(args)}
}

// NewSelect creates a bound SELECT that remembers its fragments.
func NewSelect(text string, args []any, parts SelectParts) Bound {
	b := New(queryir.OpSelect, text, args)
	b.parts = &parts
	return b
}

// Text returns the command text.
func (b Bound) Text() string {
	return b.text
}

// Args returns a copy of the positional arguments. Never nil.
func (b Bound) Args() []any {
	return copyArgs(b.args)
}

// Operation returns the operation the command performs.
func (b Bound) Operation() queryir.Operation {
	return b.op
}

// Select returns the fragments of a SELECT. The second result is false for
// other operations and for derived page/count commands.
func (b Bound) Select() (SelectParts, bool) {
	if b.parts == nil {
		return SelectParts{}, false
	}
	return *b.parts, true
}

// IsZero reports whether b is the zero value.
func (b Bound) IsZero() bool {
	return b.text == "" && b.op == ""
}

// Rebind returns the text with '?' placeholders rewritten to the given sqlx
// bind type (sqlx.DOLLAR, sqlx.AT, sqlx.NAMED, ...).
func (b Bound) Rebind(bindType int) string {
	return sqlx.Rebind(bindType, b.text)
}

func (b Bound) String() string {
	return b.text
}

type boundJSON struct {
	Operation queryir.Operation `json:"operation"`
	Text      string            `json:"text"`
	Args      []any             `json:"args"`
}

// MarshalJSON encodes the command as {"operation", "text", "args"} without
// HTML escaping, so SQL comparison operators stay readable.
func (b Bound) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(boundJSON{Operation: b.op, Text: b.text, Args: b.Args()}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func copyArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	return out
}
