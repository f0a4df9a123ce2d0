package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qforge/internal/dialect"
)

// DialectInfo describes one registered dialect.
type DialectInfo struct {
	Name    string   `json:"name"`
	Family  string   `json:"family"`
	Aliases []string `json:"aliases,omitempty"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dialects",
		Short:         "List supported dialects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(rootOpts, cmd)
		},
	}
}

func runDialects(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	var infos []DialectInfo
	for _, d := range dialect.All() {
		infos = append(infos, DialectInfo{Name: d.Name, Family: string(d.Family), Aliases: d.Aliases})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	for _, info := range infos {
		line := fmt.Sprintf("%-10s %-10s", info.Name, info.Family)
		if len(info.Aliases) > 0 {
			line += " aliases: " + strings.Join(info.Aliases, ", ")
		}
		fmt.Fprintln(formatter.Writer, strings.TrimRight(line, " "))
	}
	return nil
}
