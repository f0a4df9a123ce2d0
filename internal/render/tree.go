package render

import (
	"github.com/roach88/qforge/internal/queryir"
)

// Group is one nesting level of a condition tree.
type Group struct {
	Items []Item
}

// Item is a leaf condition or a nested group, with the connective that joins
// it to the previous item of its level.
type Item struct {
	Connective queryir.Connective
	Leaf       queryir.Condition
	Group      *Group
}

// IsGroup reports whether the item is a nested group.
func (it Item) IsGroup() bool {
	return it.Group != nil
}

// Flat reports whether g has no nested groups and joins every item with AND.
func (g *Group) Flat() bool {
	for i, it := range g.Items {
		if it.IsGroup() {
			return false
		}
		if i > 0 && it.Connective != queryir.And {
			return false
		}
		if i == 0 && it.Connective.Negated() {
			return false
		}
	}
	return true
}

// BuildTree converts the flat node list into nested groups. Empty groups are
// dropped. Unbalanced markers are an unsupported-construct error.
func BuildTree(dialectName string, nodes []queryir.Node) (*Group, error) {
	root := &Group{}
	stack := []*Group{root}
	conns := []queryir.Connective{}

	for i, n := range nodes {
		top := stack[len(stack)-1]
		switch n.Kind {
		case queryir.NodeLeaf:
			top.Items = append(top.Items, Item{Connective: connective(n.Connective), Leaf: n.Condition})
		case queryir.NodeOpen:
			stack = append(stack, &Group{})
			conns = append(conns, connective(n.Connective))
		case queryir.NodeClose:
			if len(stack) == 1 {
				return nil, queryir.NewUnsupportedError(dialectName, "where[%d]: group close without open", i)
			}
			closed := top
			stack = stack[:len(stack)-1]
			conn := conns[len(conns)-1]
			conns = conns[:len(conns)-1]
			if len(closed.Items) > 0 {
				parent := stack[len(stack)-1]
				parent.Items = append(parent.Items, Item{Connective: conn, Group: closed})
			}
		}
	}

	if len(stack) != 1 {
		return nil, queryir.NewUnsupportedError(dialectName, "where: %d group(s) left open", len(stack)-1)
	}
	return root, nil
}

func connective(c queryir.Connective) queryir.Connective {
	if c == "" {
		return queryir.And
	}
	return c
}
