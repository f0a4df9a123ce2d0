package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qforge/internal/compiler"
)

// FileValidation holds the validation errors of one document. Warnings
// name constructs that only render on some dialect families; they do not
// make the document invalid.
type FileValidation struct {
	File     string                     `json:"file"`
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate query documents without building them",
		Long: `Validate query documents without compiling them for a dialect.

Checks operators, value arity, enum fields and page/count usage, and reports
every problem found in every file. Faster than compile for development
feedback, and independent of the target dialect.

Valid documents that use groups, OR or NOT connectives, raw expressions,
GROUP BY or multi-row inserts are listed with portability warnings: they
compile for some dialect families only.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadQueries(path, LoadModeCollectAll)
	if loadResult == nil {
		code, message := errorParts(loadErrors[0])
		return outputValidateError(formatter, code, message)
	}

	formatter.VerboseLog("Found %d query file(s) in %s", loadResult.FileCount, path)

	result := ValidationResult{Valid: true}

	// Parse failures count as invalid files
	for _, err := range loadErrors {
		code, message := errorParts(err)
		var file string
		var le *LoadError
		if errors.As(err, &le) {
			file = le.Path
		}
		result.Valid = false
		result.Files = append(result.Files, FileValidation{
			File:   file,
			Errors: []compiler.ValidationError{{Field: "load", Code: code, Message: message}},
		})
	}

	for _, loaded := range loadResult.Documents {
		formatter.VerboseLog("Validating %s", loaded.Path)
		errs := compiler.Validate(loaded.Doc)
		fv := FileValidation{File: loaded.Path, Valid: len(errs) == 0, Errors: errs}
		if !fv.Valid {
			result.Valid = false
		} else if p, ok := compiler.Portability(loaded.Doc); ok && !p.IsPortable {
			fv.Warnings = p.Warnings
		}
		result.Files = append(result.Files, fv)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d document(s) valid\n", len(result.Files))
	for _, fv := range result.Files {
		if len(fv.Warnings) == 0 {
			continue
		}
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, fv.File)
		writeWarnings(formatter, fv)
	}
	return nil
}

func writeWarnings(formatter *OutputFormatter, fv FileValidation) {
	for _, w := range fv.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
	}
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every invalid document.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	var count int
	var first *compiler.ValidationError
	for i := range result.Files {
		for j := range result.Files[i].Errors {
			if first == nil {
				first = &result.Files[i].Errors[j]
			}
			count++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, fv := range result.Files {
		if fv.Valid && len(fv.Warnings) == 0 {
			continue
		}
		fmt.Fprintln(formatter.Writer, fv.File)
		for _, err := range fv.Errors {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
		}
		writeWarnings(formatter, fv)
		fmt.Fprintln(formatter.Writer)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}
