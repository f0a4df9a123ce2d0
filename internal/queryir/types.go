package queryir

import "strings"

// Operation identifies the kind of command a query compiles to.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether o is one of the four known operations.
func (o Operation) Valid() bool {
	switch o {
	case OpSelect, OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Table is a backend-neutral reference to the target of a command.
//
// The three parts are interpreted per target family:
//
//	relational: catalog / schema / table
//	document:   database (falls back to Secondary) / - / collection
//	search:     index (Tertiary, falls back to Primary) / type / -
type Table struct {
	Primary   string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Tertiary  string `json:"tertiary,omitempty" yaml:"tertiary,omitempty"`
}

// IsZero reports whether no part of the table is set.
func (t Table) IsZero() bool {
	return t.Primary == "" && t.Secondary == "" && t.Tertiary == ""
}

// Operator is a condition operator. Its arity decides how many values it binds.
type Operator string

const (
	Eq         Operator = "EQ"
	Ne         Operator = "NE"
	Gt         Operator = "GT"
	Ge         Operator = "GE"
	Lt         Operator = "LT"
	Le         Operator = "LE"
	Like       Operator = "LIKE"
	NotLike    Operator = "NOT_LIKE"
	IsNull     Operator = "IS_NULL"
	IsNotNull  Operator = "IS_NOT_NULL"
	In         Operator = "IN"
	NotIn      Operator = "NOT_IN"
	Between    Operator = "BETWEEN"
	NotBetween Operator = "NOT_BETWEEN"
)

// Operators lists every operator in declaration order.
var Operators = []Operator{
	Eq, Ne, Gt, Ge, Lt, Le, Like, NotLike,
	IsNull, IsNotNull, In, NotIn, Between, NotBetween,
}

// Arity tags an operator with the number of values it accepts.
type Arity int

const (
	ArityInvalid Arity = iota
	ArityUnary         // no value
	ArityBinary        // exactly one value
	ArityList          // one or more values
	ArityRange         // exactly two values, lower bound first
)

func (a Arity) String() string {
	switch a {
	case ArityUnary:
		return "unary"
	case ArityBinary:
		return "binary"
	case ArityList:
		return "list"
	case ArityRange:
		return "range"
	}
	return "invalid"
}

// Arity returns the arity class of o, or ArityInvalid for unknown operators.
func (o Operator) Arity() Arity {
	switch o {
	case IsNull, IsNotNull:
		return ArityUnary
	case Eq, Ne, Gt, Ge, Lt, Le, Like, NotLike:
		return ArityBinary
	case In, NotIn:
		return ArityList
	case Between, NotBetween:
		return ArityRange
	}
	return ArityInvalid
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	return o.Arity() != ArityInvalid
}

// ParseOperator resolves an operator by name, case-insensitively.
// Common symbolic spellings ("=", "<>", ">=") are accepted too.
func ParseOperator(s string) (Operator, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "=", "==":
		return Eq, true
	case "!=", "<>":
		return Ne, true
	case ">":
		return Gt, true
	case ">=":
		return Ge, true
	case "<":
		return Lt, true
	case "<=":
		return Le, true
	}
	name = strings.ReplaceAll(name, " ", "_")
	op := Operator(name)
	return op, op.Valid()
}

// Connective joins a node to the nodes before it at the same nesting level.
type Connective string

const (
	And    Connective = "AND"
	Or     Connective = "OR"
	AndNot Connective = "AND_NOT"
	OrNot  Connective = "OR_NOT"
)

// Valid reports whether c is a known connective.
func (c Connective) Valid() bool {
	switch c {
	case And, Or, AndNot, OrNot:
		return true
	}
	return false
}

// Negated reports whether the connective negates the node it precedes.
func (c Connective) Negated() bool {
	return c == AndNot || c == OrNot
}

// Base strips the negation, returning AND or OR.
func (c Connective) Base() Connective {
	switch c {
	case Or, OrNot:
		return Or
	}
	return And
}

// ParseConnective resolves a connective by name. The empty string means AND.
func ParseConnective(s string) (Connective, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return And, true
	}
	c := Connective(strings.ReplaceAll(name, " ", "_"))
	return c, c.Valid()
}

// LikeMode places the wildcard of a LIKE match.
type LikeMode string

const (
	LikeDefault LikeMode = "DEFAULT" // %v%
	LikeLeft    LikeMode = "LEFT"    // %v, ends-with
	LikeRight   LikeMode = "RIGHT"   // v%, starts-with
)

// Valid reports whether m is a known like mode.
func (m LikeMode) Valid() bool {
	switch m {
	case LikeDefault, LikeLeft, LikeRight:
		return true
	}
	return false
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// NullsOrder places NULL values within a sort.
type NullsOrder string

const (
	NullsDefault NullsOrder = ""
	NullsFirst   NullsOrder = "FIRST"
	NullsLast    NullsOrder = "LAST"
)

// DuplicateKey is the strategy applied when an inserted row collides with an
// existing key.
type DuplicateKey string

const (
	DuplicateInto   DuplicateKey = "into"
	DuplicateIgnore DuplicateKey = "ignore"
	DuplicateUpdate DuplicateKey = "update"
)

// Valid reports whether k is a known strategy. The empty value means DuplicateInto.
func (k DuplicateKey) Valid() bool {
	switch k {
	case "", DuplicateInto, DuplicateIgnore, DuplicateUpdate:
		return true
	}
	return false
}

// Projection is one selected column. Column doubles as the output alias
// when Expr is set.
type Projection struct {
	Column string
	Expr   string
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Expr   string
	Dir    Direction
	Nulls  NullsOrder
}

// GroupBy is one GROUP BY term.
type GroupBy struct {
	Column string
	Expr   string
}

// Mutation is a column assignment used by INSERT rows and UPDATE SET lists.
// A non-empty Expr replaces the default placeholder; Value is bound once per
// placeholder the expression contains.
type Mutation struct {
	Column string
	Value  any
	Expr   string
}
