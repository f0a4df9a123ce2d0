package compiler

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/roach88/qforge/internal/queryir"
)

// Document is the file form of one query.
//
// Documents are written in YAML (or JSON) and CUE; both decode into this
// struct. Enumerations are matched case-insensitively.
//
//	dialect: postgres
//	operation: select
//	table: { name: users }
//	select: [{ column: id }, { column: name }]
//	where:
//	  - { column: age, op: GT, value: 18 }
//	  - connective: OR
//	    group:
//	      - { column: role, op: IN, values: [admin, owner] }
//	order: [{ column: name, dir: ASC, nulls: LAST }]
//	page: { start: 20, size: 10 }
type Document struct {
	Dialect         string         `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Operation       string         `json:"operation" yaml:"operation"`
	Table           TableRef       `json:"table" yaml:"table"`
	Select          []Term         `json:"select,omitempty" yaml:"select,omitempty"`
	Where           []Node         `json:"where,omitempty" yaml:"where,omitempty"`
	Group           []Term         `json:"group,omitempty" yaml:"group,omitempty"`
	Order           []OrderTerm    `json:"order,omitempty" yaml:"order,omitempty"`
	Rows            [][]Assignment `json:"rows,omitempty" yaml:"rows,omitempty"`
	Set             []Assignment   `json:"set,omitempty" yaml:"set,omitempty"`
	Duplicate       string         `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
	PrimaryKey      []string       `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	AllowEmptyWhere bool           `json:"allow_empty_where,omitempty" yaml:"allow_empty_where,omitempty"`
	Delimited       bool           `json:"delimited,omitempty" yaml:"delimited,omitempty"`

	// Page and Count request a derived SELECT instead of the plain one.
	Page  *Page `json:"page,omitempty" yaml:"page,omitempty"`
	Count bool  `json:"count,omitempty" yaml:"count,omitempty"`
}

// TableRef names the command target.
type TableRef struct {
	Catalog string `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Schema  string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Name    string `json:"name" yaml:"name"`
}

// Term is a projection or GROUP BY entry.
type Term struct {
	Column string `json:"column" yaml:"column"`
	Expr   string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// OrderTerm is an ORDER BY entry.
type OrderTerm struct {
	Column string `json:"column" yaml:"column"`
	Expr   string `json:"expr,omitempty" yaml:"expr,omitempty"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Nulls  string `json:"nulls,omitempty" yaml:"nulls,omitempty"`
}

// Assignment is an INSERT or SET entry.
type Assignment struct {
	Column string `json:"column" yaml:"column"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
	Expr   string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// Node is one where entry: either a condition or a group of nodes.
type Node struct {
	Connective string `json:"connective,omitempty" yaml:"connective,omitempty"`
	Column     string `json:"column,omitempty" yaml:"column,omitempty"`
	ColumnExpr string `json:"column_expr,omitempty" yaml:"column_expr,omitempty"`
	Op         string `json:"op,omitempty" yaml:"op,omitempty"`
	Value      any    `json:"value,omitempty" yaml:"value,omitempty"`
	Values     []any  `json:"values,omitempty" yaml:"values,omitempty"`
	ValueExpr  string `json:"value_expr,omitempty" yaml:"value_expr,omitempty"`
	Like       string `json:"like,omitempty" yaml:"like,omitempty"`
	Group      []Node `json:"group,omitempty" yaml:"group,omitempty"`
}

// IsGroup reports whether n groups other nodes.
func (n Node) IsGroup() bool {
	return n.Group != nil
}

// Page is a requested row window.
type Page struct {
	Start int64 `json:"start,omitempty" yaml:"start,omitempty"`
	Size  int64 `json:"size" yaml:"size"`
}

func parseOperation(field, s string) (queryir.Operation, *ValidationError) {
	op := queryir.Operation(strings.ToLower(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", &ValidationError{Field: field, Code: ErrInvalidOperation,
			Message: fmt.Sprintf("unknown operation %q (want select, insert, update or delete)", s)}
	}
	return op, nil
}

func parseConnective(field, s string) (queryir.Connective, *ValidationError) {
	c, ok := queryir.ParseConnective(s)
	if !ok {
		return "", &ValidationError{Field: field, Code: ErrInvalidConnective,
			Message: fmt.Sprintf("unknown connective %q", s)}
	}
	return c, nil
}

func parseOperator(field, s string) (queryir.Operator, *ValidationError) {
	if s == "" {
		return "", &ValidationError{Field: field, Code: ErrInvalidOperator, Message: "op is required"}
	}
	op, ok := queryir.ParseOperator(s)
	if !ok {
		return "", &ValidationError{Field: field, Code: ErrInvalidOperator,
			Message: fmt.Sprintf("unknown operator %q", s)}
	}
	return op, nil
}

func parseLike(field, s string) (queryir.LikeMode, *ValidationError) {
	if s == "" {
		return queryir.LikeDefault, nil
	}
	m := queryir.LikeMode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", &ValidationError{Field: field, Code: ErrInvalidEnum,
			Message: fmt.Sprintf("unknown like mode %q (want DEFAULT, LEFT or RIGHT)", s)}
	}
	return m, nil
}

func parseDirection(field, s string) (queryir.Direction, *ValidationError) {
	switch d := queryir.Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case "", queryir.Asc:
		return queryir.Asc, nil
	case queryir.Desc:
		return d, nil
	}
	return "", &ValidationError{Field: field, Code: ErrInvalidEnum,
		Message: fmt.Sprintf("unknown direction %q (want ASC or DESC)", s)}
}

func parseNulls(field, s string) (queryir.NullsOrder, *ValidationError) {
	switch n := queryir.NullsOrder(strings.ToUpper(strings.TrimSpace(s))); n {
	case "", "DEFAULT":
		return queryir.NullsDefault, nil
	case queryir.NullsFirst, queryir.NullsLast:
		return n, nil
	}
	return "", &ValidationError{Field: field, Code: ErrInvalidEnum,
		Message: fmt.Sprintf("unknown nulls placement %q (want FIRST or LAST)", s)}
}

func parseDuplicate(field, s string) (queryir.DuplicateKey, *ValidationError) {
	k := queryir.DuplicateKey(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &ValidationError{Field: field, Code: ErrInvalidEnum,
			Message: fmt.Sprintf("unknown duplicate strategy %q (want into, ignore or update)", s)}
	}
	return k, nil
}

// normalizeValue maps a decoded scalar onto the value types bound by the
// builders: nil, bool, int64, float64, string and time.Time.
func normalizeValue(field string, v any) (any, *ValidationError) {
	switch x := v.(type) {
	case nil, bool, string, int64, float64, time.Time:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint64:
		if x <= 1<<63-1 {
			return int64(x), nil
		}
	case float32:
		return float64(x), nil
	case *big.Int:
		if x.IsInt64() {
			return x.Int64(), nil
		}
	}
	return nil, &ValidationError{Field: field, Code: ErrInvalidValue,
		Message: fmt.Sprintf("unsupported value %v (%T); values must be scalars", v, v)}
}

func normalizeValues(field string, vs []any) ([]any, *ValidationError) {
	out := make([]any, len(vs))
	for i, v := range vs {
		n, err := normalizeValue(fmt.Sprintf("%s[%d]", field, i), v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
