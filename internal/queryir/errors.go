package queryir

import (
	"errors"
	"fmt"
)

// BuildError reports why a query could not be compiled.
//
// Build errors are raised before any command text is produced; a failed
// build never yields partial output.
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Message is a human-readable description.
	Message string

	// Dialect names the target, when the error is target specific.
	Dialect string

	// Column names the offending column, when there is one.
	Column string
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	// ErrCodeArity indicates a value count that does not match an operator
	// or clause (BETWEEN without two bounds, empty IN, empty insert).
	ErrCodeArity BuildErrorCode = "ARITY"

	// ErrCodeCapability indicates a construct the target cannot express
	// (upsert strategy, pagination form, multi-row insert).
	ErrCodeCapability BuildErrorCode = "CAPABILITY"

	// ErrCodeUnsupported indicates a construct a builder cannot render.
	ErrCodeUnsupported BuildErrorCode = "UNSUPPORTED"

	// ErrCodeEmptyWhere indicates an UPDATE or DELETE without conditions.
	ErrCodeEmptyWhere BuildErrorCode = "EMPTY_WHERE"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	switch {
	case e.Dialect != "" && e.Column != "":
		return fmt.Sprintf("%s: %s (dialect=%s, column=%s)", e.Code, e.Message, e.Dialect, e.Column)
	case e.Dialect != "":
		return fmt.Sprintf("%s: %s (dialect=%s)", e.Code, e.Message, e.Dialect)
	case e.Column != "":
		return fmt.Sprintf("%s: %s (column=%s)", e.Code, e.Message, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDialect returns a copy of e tagged with the dialect name.
func (e *BuildError) WithDialect(name string) *BuildError {
	c := *e
	c.Dialect = name
	return &c
}

// ErrorCode returns the code of a BuildError anywhere in err's chain,
// or the empty string.
func ErrorCode(err error) BuildErrorCode {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsArityError returns true if the error is an arity violation.
// Uses errors.As to handle wrapped errors.
func IsArityError(err error) bool {
	return ErrorCode(err) == ErrCodeArity
}

// IsCapabilityError returns true if the target cannot express the construct.
func IsCapabilityError(err error) bool {
	return ErrorCode(err) == ErrCodeCapability
}

// IsUnsupportedError returns true if the builder cannot render the construct.
func IsUnsupportedError(err error) bool {
	return ErrorCode(err) == ErrCodeUnsupported
}

// IsEmptyWhereError returns true for an unguarded UPDATE or DELETE.
func IsEmptyWhereError(err error) bool {
	return ErrorCode(err) == ErrCodeEmptyWhere
}

// NewArityError creates an arity error for column.
func NewArityError(column, format string, args ...any) *BuildError {
	return &BuildError{
		Code:    ErrCodeArity,
		Message: fmt.Sprintf(format, args...),
		Column:  column,
	}
}

// NewCapabilityError creates a capability error for the named dialect.
func NewCapabilityError(dialect, format string, args ...any) *BuildError {
	return &BuildError{
		Code:    ErrCodeCapability,
		Message: fmt.Sprintf(format, args...),
		Dialect: dialect,
	}
}

// NewUnsupportedError creates an unsupported-construct error.
func NewUnsupportedError(dialect, format string, args ...any) *BuildError {
	return &BuildError{
		Code:    ErrCodeUnsupported,
		Message: fmt.Sprintf(format, args...),
		Dialect: dialect,
	}
}

// NewEmptyWhereError creates the error raised for an unguarded UPDATE or DELETE.
func NewEmptyWhereError(op Operation) *BuildError {
	return &BuildError{
		Code:    ErrCodeEmptyWhere,
		Message: fmt.Sprintf("%s without conditions affects every row; allow it explicitly", op),
	}
}
