// Package cmd wires gomux's cobra command tree: attach/new-session,
// list-sessions, send-keys, and the hidden daemon-start commands that
// back them. Grounded on the teacher's internal/cmd package shape (one
// `newXCmd() *cobra.Command` per command, flags bound with cmd.Flags(),
// assembled in NewRootCmd) -- h2's own root.go is the direct model for
// this file, generalized from h2's fixed agent-wrapper command set to
// gomux's tmux-like attach/session surface.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command with every subcommand
// attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gomux",
		Short: "A terminal multiplexer",
		Long:  "gomux is a terminal multiplexer: a background server manages sessions, windows, and panes; short-lived clients attach to it over a Unix socket.",
	}

	rootCmd.AddCommand(
		newAttachCmd(),
		newNewSessionCmd(),
		newKillSessionCmd(),
		newLsCmd(),
		newSendKeysCmd(),
		newServerCmd(),
		newKillServerCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
