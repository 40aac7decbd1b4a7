package cmd

import (
	"github.com/spf13/cobra"

	"gomux/internal/ipc"
)

// newKillServerCmd destroys every session and shuts the server down
// (spec.md §4.D kill-server).
func newKillServerCmd() *cobra.Command {
	var sf socketFlags

	cmd := &cobra.Command{
		Use:   "kill-server",
		Short: "Destroy every session and stop the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := request(&sf, &ipc.Request{Type: "send-keys", Keys: "kill-server"})
			return err
		},
	}
	sf.register(cmd.Flags())
	return cmd
}
