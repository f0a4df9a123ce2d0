package compiler

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// CompileError is a parse or schema error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Extensions lists the file extensions LoadFile understands.
var Extensions = []string{".yaml", ".yml", ".json", ".cue"}

// IsQueryFile reports whether path has a query document extension.
func IsQueryFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadFile reads a query document, choosing the parser by extension.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return ParseCUE(path, data)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML or JSON query document.
// Unknown fields are rejected.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&doc); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	return &doc, nil
}

// ParseCUE evaluates a CUE query document against the #Query schema and
// decodes it. The document must be concrete; closed definitions reject
// unknown fields.
//
//	operation: "select"
//	table: name: "users"
//	where: [{column: "age", op: "GT", value: 18}]
func ParseCUE(filename string, data []byte) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	q := schema.LookupPath(cue.ParsePath("#Query")).Unify(v)
	if err := q.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc Document
	if err := q.Decode(&doc); err != nil {
		return nil, formatCUEError(err)
	}
	return &doc, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return &CompileError{Field: "cue", Message: firstErr.Error()}
}
