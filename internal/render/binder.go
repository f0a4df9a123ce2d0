package render

import "github.com/roach88/qforge/internal/command"

// Binder accumulates positional arguments in emission order.
//
// Every renderer binds through a Binder so that the argument list and the
// placeholders in the text are produced by the same walk.
type Binder struct {
	args []any
}

// Bind records v and returns its placeholder.
func (b *Binder) Bind(v any) string {
	b.args = append(b.args, v)
	return "?"
}

// BindExpr renders a value that may be overridden by a raw expression.
// With no expression the value gets a plain placeholder. Otherwise the
// expression is returned as-is and v is bound once per placeholder it
// contains; an expression without placeholders binds nothing.
func (b *Binder) BindExpr(expr string, v any) string {
	if expr == "" {
		return b.Bind(v)
	}
	for i := command.CountPlaceholders(expr); i > 0; i-- {
		b.args = append(b.args, v)
	}
	return expr
}

// Args returns the accumulated arguments.
func (b *Binder) Args() []any {
	return b.args
}

// Len returns the number of accumulated arguments.
func (b *Binder) Len() int {
	return len(b.args)
}
