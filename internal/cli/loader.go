package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/qforge/internal/compiler"
	"github.com/roach88/qforge/internal/queryir"
)

// LoadMode controls how errors are handled during document loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedDocument is one parsed query document and the file it came from.
type LoadedDocument struct {
	Path string
	Doc  *compiler.Document
}

// LoadResult contains the documents loaded from a file or directory.
type LoadResult struct {
	Documents []LoadedDocument
	FileCount int // Number of query files found
}

// LoadError represents an error that occurred during document loading.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands. Document
// validation codes (E101-E110) come from the compiler package.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No query files found
	ErrCodeParseFailed  = "E004" // YAML or CUE parse failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeWriteFailed  = "E006" // File write error
	ErrCodeInvalidInput = "E007" // Path is not a query file
	ErrCodeTestFailed   = "E_TEST_FAILED"
)

// LoadQueries parses the query document at path, or every query document
// under path when it is a directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadQueries(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}}
	}

	var files []string
	if info.IsDir() {
		files, err = FindQueryFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no query files found in %s", path)}}
		}
	} else {
		if !compiler.IsQueryFile(path) {
			return nil, []error{&LoadError{Code: ErrCodeInvalidInput, Path: path,
				Message: fmt.Sprintf("not a query file (want one of %v)", compiler.Extensions)}}
		}
		files = []string{path}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	for _, file := range files {
		doc, err := compiler.LoadFile(file)
		if err != nil {
			errs = append(errs, convertParseError(err, file))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Documents = append(result.Documents, LoadedDocument{Path: file, Doc: doc})
	}

	return result, errs
}

// FindQueryFiles walks the directory and returns all query document paths
// in lexical order.
func FindQueryFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && compiler.IsQueryFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertParseError converts a parse error to a LoadError with position info.
func convertParseError(err error, path string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeParseFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Path:    path,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
		Path:    path,
	}
}

// errorParts splits an error into a code and message for CLI output. Build
// codes (ARITY, CAPABILITY, ...) win over document codes.
func errorParts(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Error()
	}
	if code := queryir.ErrorCode(err); code != "" {
		return string(code), err.Error()
	}
	var ve *compiler.ValidationError
	if errors.As(err, &ve) {
		return ve.Code, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}
