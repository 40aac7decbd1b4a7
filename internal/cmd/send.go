package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"gomux/internal/ipc"
)

// newSendKeysCmd submits literal keystrokes to a session's active pane.
// Grounded on the teacher's send.go (dial, build a request from flags
// plus trailing words, check resp.OK) generalized from a message body
// to a send-keys command line, and on spec.md §6's own `send-keys`
// entry.
func newSendKeysCmd() *cobra.Command {
	var sf socketFlags
	var target string
	var literal bool

	cmd := &cobra.Command{
		Use:   "send-keys -t <session> <keys...>",
		Short: "Send keys to a session's active pane",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := "send-keys "
			if literal {
				line += "-l "
			}
			line += strings.Join(args, " ")
			_, err := request(&sf, &ipc.Request{
				Type: "send-keys",
				Name: target,
				Keys: line,
			})
			return err
		},
	}
	sf.register(cmd.Flags())
	cmd.Flags().StringVarP(&target, "target", "t", "", "Target session")
	cmd.Flags().BoolVarP(&literal, "literal", "l", false, "Send keys literally, without key-name translation")
	return cmd
}
