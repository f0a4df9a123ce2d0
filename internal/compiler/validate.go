package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidOperation  = "E101" // unknown operation
	ErrMissingTable      = "E102" // table.name is required
	ErrInvalidOperator   = "E103" // missing or unknown condition operator
	ErrInvalidConnective = "E104" // unknown connective
	ErrInvalidEnum       = "E105" // like, dir, nulls or duplicate out of range
	ErrInvalidValue      = "E106" // non-scalar value
	ErrArity             = "E107" // value count does not match the operator
	ErrMisplacedField    = "E108" // field not valid in this position
	ErrInvalidPage       = "E109" // page/count misuse
	ErrUnknownDialect    = "E110" // dialect name not registered
)

// ValidationError represents a document validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`

	// Err is the underlying build error, when there is one.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks a document without building it.
// Returns all errors found (does not fail-fast).
func Validate(doc *Document) []ValidationError {
	v := &validator{}

	if doc.Dialect != "" {
		if _, err := dialect.Lookup(doc.Dialect); err != nil {
			v.add(&ValidationError{Field: "dialect", Code: ErrUnknownDialect, Message: err.Error()})
		}
	}

	op, err := parseOperation("operation", doc.Operation)
	v.add(err)

	if strings.TrimSpace(doc.Table.Name) == "" {
		v.add(&ValidationError{Field: "table.name", Code: ErrMissingTable, Message: "table name is required"})
	}

	v.nodes("where", doc.Where)

	for i, o := range doc.Order {
		field := fmt.Sprintf("order[%d]", i)
		_, err := parseDirection(field+".dir", o.Dir)
		v.add(err)
		_, err = parseNulls(field+".nulls", o.Nulls)
		v.add(err)
	}

	if doc.Duplicate != "" {
		_, err := parseDuplicate("duplicate", doc.Duplicate)
		v.add(err)
	}

	for i, row := range doc.Rows {
		for j, a := range row {
			_, err := normalizeValue(fmt.Sprintf("rows[%d][%d].value", i, j), a.Value)
			v.add(err)
		}
	}
	for i, a := range doc.Set {
		_, err := normalizeValue(fmt.Sprintf("set[%d].value", i), a.Value)
		v.add(err)
	}

	v.page(doc, op)

	return v.errs
}

// validator accumulates errors during traversal.
type validator struct {
	errs []ValidationError
}

func (v *validator) add(err *ValidationError) {
	if err != nil {
		v.errs = append(v.errs, *err)
	}
}

func (v *validator) nodes(path string, nodes []Node) {
	for i, n := range nodes {
		field := fmt.Sprintf("%s[%d]", path, i)
		_, err := parseConnective(field+".connective", n.Connective)
		v.add(err)

		if n.IsGroup() {
			v.add(n.checkGroup(field))
			v.nodes(field+".group", n.Group)
			continue
		}
		_, err = n.condition(field)
		v.add(err)
	}
}

func (v *validator) page(doc *Document, op queryir.Operation) {
	if doc.Page == nil && !doc.Count {
		return
	}
	if op != "" && op != queryir.OpSelect {
		v.add(&ValidationError{Field: "page", Code: ErrInvalidPage,
			Message: fmt.Sprintf("page and count apply to select, not %s", op)})
	}
	if doc.Page != nil && doc.Count {
		v.add(&ValidationError{Field: "count", Code: ErrInvalidPage, Message: "page and count are mutually exclusive"})
	}
	if p := doc.Page; p != nil {
		if p.Size <= 0 {
			v.add(&ValidationError{Field: "page.size", Code: ErrInvalidPage,
				Message: fmt.Sprintf("page size must be positive, got %d", p.Size)})
		}
		if p.Start < 0 {
			v.add(&ValidationError{Field: "page.start", Code: ErrInvalidPage,
				Message: fmt.Sprintf("page start must not be negative, got %d", p.Start)})
		}
	}
}

// checkGroup rejects condition fields on a group node.
func (n Node) checkGroup(field string) *ValidationError {
	if n.Column != "" || n.ColumnExpr != "" || n.Op != "" || n.Value != nil || n.Values != nil || n.ValueExpr != "" || n.Like != "" {
		return &ValidationError{Field: field, Code: ErrMisplacedField,
			Message: "a group node carries only connective and group"}
	}
	return nil
}

// condition builds the node's condition, picking value or values by the
// operator's arity.
func (n Node) condition(field string) (queryir.Condition, *ValidationError) {
	op, verr := parseOperator(field+".op", n.Op)
	if verr != nil {
		return queryir.Condition{}, verr
	}

	var raw []any
	switch op.Arity() {
	case queryir.ArityUnary:
		if n.Value != nil || len(n.Values) > 0 {
			return queryir.Condition{}, &ValidationError{Field: field, Code: ErrArity,
				Message: fmt.Sprintf("%s takes no value", op)}
		}
	case queryir.ArityBinary:
		if len(n.Values) > 0 {
			return queryir.Condition{}, &ValidationError{Field: field + ".values", Code: ErrArity,
				Message: fmt.Sprintf("%s takes a single value; use value", op)}
		}
		raw = []any{n.Value}
	case queryir.ArityList:
		raw = n.Values
		if raw == nil && n.Value != nil {
			raw = []any{n.Value}
		}
	case queryir.ArityRange:
		if n.Value != nil {
			return queryir.Condition{}, &ValidationError{Field: field + ".value", Code: ErrArity,
				Message: fmt.Sprintf("%s takes two values; use values", op)}
		}
		raw = n.Values
	}

	values, verr := normalizeValues(field+".values", raw)
	if verr != nil {
		return queryir.Condition{}, verr
	}

	c, err := queryir.NewCondition(n.Column, op, values...)
	if err != nil {
		return queryir.Condition{}, &ValidationError{Field: field, Code: ErrArity, Message: buildMessage(err), Err: err}
	}

	if n.Like != "" {
		if op != queryir.Like && op != queryir.NotLike {
			return queryir.Condition{}, &ValidationError{Field: field + ".like", Code: ErrMisplacedField,
				Message: fmt.Sprintf("like applies to LIKE and NOT_LIKE, not %s", op)}
		}
		mode, verr := parseLike(field+".like", n.Like)
		if verr != nil {
			return queryir.Condition{}, verr
		}
		c = c.WithLike(mode)
	}
	if n.ColumnExpr != "" {
		c = c.WithColumnExpr(n.ColumnExpr)
	}
	if n.ValueExpr != "" {
		c = c.WithValueExpr(n.ValueExpr)
	}
	return c, nil
}

func buildMessage(err error) string {
	var be *queryir.BuildError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
