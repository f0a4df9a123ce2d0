package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qforge/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Native bool   // rewrite placeholders to the dialect's own form
}

// CompiledQuery is one document rendered for its dialect.
type CompiledQuery struct {
	File      string `json:"file"`
	Dialect   string `json:"dialect"`
	Operation string `json:"operation"`
	Text      string `json:"text"`
	Args      []any  `json:"args"`
}

// CompilationResult holds every compiled query of one run.
type CompilationResult struct {
	Queries []CompiledQuery `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile query documents to commands",
		Long: `Compile query documents (YAML, JSON or CUE) into command text and
bound arguments for their dialect.

path is a single document or a directory searched recursively. Documents
without a dialect field use --dialect.

Examples:
  qforge compile queries/active_users.cue
  qforge compile queries --dialect postgres --native
  qforge compile queries --format json --output compiled.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Native, "native", false, "use native placeholders ($1, @p1, :arg1) instead of ?")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	// Use shared loader with collect-all mode
	loadResult, loadErrors := LoadQueries(path, LoadModeCollectAll)
	if loadResult == nil {
		code, message := errorParts(loadErrors[0])
		return outputCompileError(formatter, code, message)
	}

	formatter.VerboseLog("Found %d query file(s) in %s", loadResult.FileCount, path)

	errs := loadErrors
	result := &CompilationResult{Queries: make([]CompiledQuery, 0, len(loadResult.Documents))}
	for _, loaded := range loadResult.Documents {
		formatter.VerboseLog("Compiling %s", loaded.Path)

		d, err := compiler.Resolve(loaded.Doc, "", opts.Dialect)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", loaded.Path, err))
			continue
		}
		bound, err := compiler.Compile(loaded.Doc, d)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", loaded.Path, err))
			continue
		}

		text := bound.Text()
		if opts.Native {
			text = bound.Rebind(d.Bindvar)
		}
		result.Queries = append(result.Queries, CompiledQuery{
			File:      loaded.Path,
			Dialect:   d.Name,
			Operation: string(bound.Operation()),
			Text:      text,
			Args:      bound.Args(),
		})
		logger.Debug("query compiled", "file", loaded.Path, "dialect", d.Name, "args", len(bound.Args()))
	}

	// Handle compilation errors
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeCompiledToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d query(ies)\n\n", len(result.Queries))
	for _, q := range result.Queries {
		fmt.Fprintf(formatter.Writer, "%s [%s %s]\n", q.File, q.Dialect, q.Operation)
		fmt.Fprintf(formatter.Writer, "  %s\n", q.Text)
		if len(q.Args) > 0 {
			fmt.Fprintf(formatter.Writer, "  args: %v\n", q.Args)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote compiled queries to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := errorParts(err)
		cliErrors[i] = CLIError{Code: code, Message: message}
	}

	if formatter.Format == "json" {
		// First error as the headline, all errors in data
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Compilation failed with %d error(s):\n\n", len(cliErrors))
		for _, e := range cliErrors {
			fmt.Fprintf(formatter.Writer, "  [%s] %s\n", e.Code, e.Message)
		}
	}

	return WrapExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)), nil)
}

// writeCompiledToFile writes the compiled queries as indented JSON.
func writeCompiledToFile(result *CompilationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
