package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/qforge/internal/dialect"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Dialect string // default target when a document names none
	Config  string // config file path

	// IDs generates the trace ID of each command run.
	IDs IDGenerator

	// Logger is configured from the verbose flag before a command runs.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the qforge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{IDs: UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "qforge",
		Short: "qforge - query compiler",
		Long: `Compile backend-neutral query documents into SQL, document-store
and search-engine commands with bound arguments.

Global flags can also be set in .qforge.yaml or with QFORGE_* environment
variables; flags win over the environment, which wins over the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, opts); err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Dialect != "" {
				if _, err := dialect.Lookup(opts.Dialect); err != nil {
					return WrapExitError(ExitCommandError, "invalid --dialect", err)
				}
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect when a document names none")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default .qforge.yaml)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger returns a text logger on w: debug level when verbose, warnings
// otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *RootOptions) traceID() string {
	if o.IDs == nil {
		return ""
	}
	return o.IDs.Generate()
}
