package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gomux/internal/ipc"
)

// newNewSessionCmd creates a detached session (tmux's `new-session -d`),
// submitted through the same generic command-line request send-keys
// uses rather than a dedicated request type, since Server.Submit already
// parses "new-session -s ... -c ... <command>" through the builtin
// verb table (spec.md §4.D, scenario 1).
func newNewSessionCmd() *cobra.Command {
	var sf socketFlags
	var name string
	var dir string

	cmd := &cobra.Command{
		Use:   "new-session [-s name] [-c start-dir] [command [args...]]",
		Short: "Create a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = currentDir()
			}
			shell := defaultShell()
			if len(args) > 0 {
				shell = strings.Join(args, " ")
			}

			var b strings.Builder
			fmt.Fprintf(&b, "new-session -d -c %s", shellQuote(dir))
			if name != "" {
				fmt.Fprintf(&b, " -s %s", shellQuote(name))
			}
			fmt.Fprintf(&b, " -n %s", shellQuote(shell))

			_, err := requestOrStart(&sf, &ipc.Request{Type: "send-keys", Keys: b.String()})
			return err
		},
	}
	sf.register(cmd.Flags())
	cmd.Flags().StringVarP(&name, "session-name", "s", "", "Session name")
	cmd.Flags().StringVarP(&dir, "start-directory", "c", "", "Starting working directory")
	return cmd
}

// shellQuote wraps s in single quotes for safe embedding in a gomux
// command line, escaping any single quote it contains -- the same
// quoting langparse.ParseLine's grammar expects for a word with spaces.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
