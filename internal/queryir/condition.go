package queryir

// Condition is one leaf predicate of a condition tree.
//
// Conditions are immutable and can only be obtained from NewCondition, so a
// Condition held anywhere in the system has already passed arity validation.
// The With* methods return modified copies.
type Condition struct {
	column     string
	columnExpr string
	op         Operator
	values     []any
	valueExpr  string
	like       LikeMode
}

// NewCondition validates the value count against the operator's arity and
// returns the condition.
//
//	unary  (IS_NULL, IS_NOT_NULL):    no values
//	binary (EQ, NE, GT, ..., LIKE):   exactly one value
//	list   (IN, NOT_IN):              one or more values
//	range  (BETWEEN, NOT_BETWEEN):    exactly two values, lower bound first
func NewCondition(column string, op Operator, values ...any) (Condition, error) {
	if column == "" {
		return Condition{}, NewArityError("", "condition requires a column")
	}

	n := len(values)
	switch op.Arity() {
	case ArityUnary:
		if n != 0 {
			return Condition{}, NewArityError(column, "%s takes no value, got %d", op, n)
		}
	case ArityBinary:
		if n != 1 {
			return Condition{}, NewArityError(column, "%s takes exactly one value, got %d", op, n)
		}
	case ArityList:
		if n == 0 {
			return Condition{}, NewArityError(column, "%s requires at least one value", op)
		}
	case ArityRange:
		if n != 2 {
			return Condition{}, NewArityError(column, "%s requires exactly two values, got %d", op, n)
		}
	default:
		return Condition{}, NewArityError(column, "unknown operator %q", string(op))
	}

	c := Condition{column: column, op: op, like: LikeDefault}
	if n > 0 {
		c.values = append([]any(nil), values...)
	}
	return c, nil
}

// MustCondition is like NewCondition but panics on error.
// Intended for tests and package-level fixtures.
func MustCondition(column string, op Operator, values ...any) Condition {
	c, err := NewCondition(column, op, values...)
	if err != nil {
		panic(err)
	}
	return c
}

// WithColumnExpr replaces the rendered column (left side) with a raw expression.
func (c Condition) WithColumnExpr(expr string) Condition {
	c.columnExpr = expr
	return c
}

// WithValueExpr replaces the rendered value (right side) with a raw expression.
// The condition's value is bound once per placeholder in expr.
func (c Condition) WithValueExpr(expr string) Condition {
	c.valueExpr = expr
	return c
}

// WithLike sets the wildcard placement of a LIKE or NOT_LIKE condition.
func (c Condition) WithLike(mode LikeMode) Condition {
	if mode == "" {
		mode = LikeDefault
	}
	c.like = mode
	return c
}

func (c Condition) Column() string     { return c.column }
func (c Condition) ColumnExpr() string { return c.columnExpr }
func (c Condition) Op() Operator       { return c.op }
func (c Condition) ValueExpr() string  { return c.valueExpr }
func (c Condition) Like() LikeMode     { return c.like }

// Values returns a copy of the condition's values.
func (c Condition) Values() []any {
	if c.values == nil {
		return nil
	}
	return append([]any(nil), c.values...)
}

// Value returns the i-th value, or nil when out of range.
func (c Condition) Value(i int) any {
	if i < 0 || i >= len(c.values) {
		return nil
	}
	return c.values[i]
}

// Len returns the number of values.
func (c Condition) Len() int {
	return len(c.values)
}

// IsZero reports whether c was never initialized through NewCondition.
func (c Condition) IsZero() bool {
	return c.op == ""
}

// NodeKind distinguishes leaves from group markers.
type NodeKind int

const (
	NodeLeaf NodeKind = iota
	NodeOpen
	NodeClose
)

func (k NodeKind) String() string {
	switch k {
	case NodeOpen:
		return "open"
	case NodeClose:
		return "close"
	}
	return "leaf"
}

// Node is one entry in the flat, ordered condition list. Groups are encoded
// as matching NodeOpen/NodeClose markers around their children.
type Node struct {
	Kind       NodeKind
	Connective Connective
	Condition  Condition
}

// Leaf returns a leaf node.
func Leaf(conn Connective, c Condition) Node {
	return Node{Kind: NodeLeaf, Connective: conn, Condition: c}
}

// Open returns a group-open marker joined by conn.
func Open(conn Connective) Node {
	return Node{Kind: NodeOpen, Connective: conn}
}

// Close returns a group-close marker.
func Close() Node {
	return Node{Kind: NodeClose}
}
