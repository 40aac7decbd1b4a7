package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gomux/internal/ipc"
)

// newKillSessionCmd destroys a named session and every window/pane it
// owns (spec.md §4.D kill-session). Routed through the same generic
// command-line path new-session uses.
func newKillSessionCmd() *cobra.Command {
	var sf socketFlags
	var target string

	cmd := &cobra.Command{
		Use:   "kill-session -t <session>",
		Short: "Destroy a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return fmt.Errorf("-t is required")
			}
			_, err := request(&sf, &ipc.Request{
				Type: "send-keys",
				Name: target,
				Keys: "kill-session",
			})
			return err
		},
	}
	sf.register(cmd.Flags())
	cmd.Flags().StringVarP(&target, "target", "t", "", "Target session")
	return cmd
}
