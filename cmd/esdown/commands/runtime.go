package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/esdown/pkg/runtime"
)

// NewRuntimeCommand creates the runtime subcommand.
func NewRuntimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "runtime",
		Short: "Print the runtime helper library",
		Long:  "Print the _esdown helper library that translated code expects to find in scope.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), runtime.Source())

			return err //nolint:wrapcheck // write to stdout
		},
	}
}
