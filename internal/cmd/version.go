package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gomux/internal/version"
)

// newVersionCmd prints the build version. No teacher cmd/version.go was
// retrieved in this pack, so the command itself is new; it does nothing
// but surface the existing internal/version.DisplayVersion.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gomux version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.DisplayVersion())
			return nil
		},
	}
}
