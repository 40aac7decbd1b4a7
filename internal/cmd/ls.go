package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gomux/internal/ipc"
)

// newLsCmd lists every session a running server knows about. Grounded
// on the teacher's ls.go (dial, send a status-style request, print one
// line per result) generalized from h2's per-agent state line to
// gomux's plain session name list (spec.md §6 `list-sessions`).
func newLsCmd() *cobra.Command {
	var sf socketFlags

	cmd := &cobra.Command{
		Use:     "list-sessions",
		Aliases: []string{"ls"},
		Short:   "List running sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := request(&sf, &ipc.Request{Type: "list-sessions"})
			if err != nil {
				return err
			}
			if len(resp.Sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}
			for _, name := range resp.Sessions {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	sf.register(cmd.Flags())
	return cmd
}
