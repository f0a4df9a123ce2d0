package queryir

import "slices"

// Query is the accumulated, backend-neutral description of one command.
//
// Query is plain data. The builder package owns mutation; renderers receive a
// snapshot taken with Clone and never modify it.
type Query struct {
	Operation   Operation
	Table       Table
	Projections []Projection
	Nodes       []Node
	Groups      []GroupBy
	Orders      []Order
	Rows        [][]Mutation
	Sets        []Mutation
	Duplicate   DuplicateKey
	PrimaryKey  []string

	// AllowEmptyWhere permits UPDATE and DELETE without conditions.
	AllowEmptyWhere bool

	// Delimited forces identifier quoting even where it is not needed.
	Delimited bool
}

// Clone returns a deep copy of q. Condition values are shared; they are
// never mutated after construction.
func (q Query) Clone() Query {
	c := q
	c.Projections = slices.Clone(q.Projections)
	c.Nodes = slices.Clone(q.Nodes)
	c.Groups = slices.Clone(q.Groups)
	c.Orders = slices.Clone(q.Orders)
	c.Sets = slices.Clone(q.Sets)
	c.PrimaryKey = slices.Clone(q.PrimaryKey)
	if q.Rows != nil {
		c.Rows = make([][]Mutation, len(q.Rows))
		for i, row := range q.Rows {
			c.Rows[i] = slices.Clone(row)
		}
	}
	return c
}

// HasConditions reports whether at least one leaf condition is present.
func (q Query) HasConditions() bool {
	for _, n := range q.Nodes {
		if n.Kind == NodeLeaf {
			return true
		}
	}
	return false
}

// Leaves returns the leaf conditions in insertion order.
func (q Query) Leaves() []Condition {
	var out []Condition
	for _, n := range q.Nodes {
		if n.Kind == NodeLeaf {
			out = append(out, n.Condition)
		}
	}
	return out
}

// IsPrimaryKey reports whether column is part of the primary key.
func (q Query) IsPrimaryKey(column string) bool {
	return slices.Contains(q.PrimaryKey, column)
}

// DuplicateStrategy returns the effective duplicate-key strategy.
func (q Query) DuplicateStrategy() DuplicateKey {
	if q.Duplicate == "" {
		return DuplicateInto
	}
	return q.Duplicate
}
