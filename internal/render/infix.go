package render

import (
	"strings"

	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

// LeafFunc renders one condition, binding its values as it goes.
type LeafFunc func(c queryir.Condition) (string, error)

// Infix renders a condition tree as an infix boolean expression:
//
//	a = ? OR (b = ? AND NOT c = ?)
//
// The first item of every level carries no connective, except NOT for a
// negating one. Leaves are rendered in order, so arguments bound by leaf
// follow the text.
func Infix(d *dialect.Dialect, g *Group, leaf LeafFunc) (string, error) {
	var sb strings.Builder
	for i, it := range g.Items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if conn := d.Connective(it.Connective, i == 0); conn != "" {
			sb.WriteString(conn)
			sb.WriteByte(' ')
		}

		if it.IsGroup() {
			inner, err := Infix(d, it.Group, leaf)
			if err != nil {
				return "", err
			}
			sb.WriteString("(" + inner + ")")
			continue
		}

		text, err := leaf(it.Leaf)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
