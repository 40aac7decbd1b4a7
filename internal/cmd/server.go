package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"gomux/internal/cmdqueue"
	"gomux/internal/config"
	"gomux/internal/ipc"
	"gomux/internal/logging"
	"gomux/internal/mux"
	"gomux/internal/socketdir"
)

// newServerCmd is the hidden re-exec target ipc.ForkServer launches:
// bind the socket, build a *mux.Server, and run the accept loop until
// the last session exits. Grounded on the teacher's daemon.go command
// shape (a hidden, flag-driven subcommand wired up for os/exec
// re-invocation), generalized from "run one agent's wrapped process" to
// "run the shared multiplexer server."
func newServerCmd() *cobra.Command {
	var socketLabel string

	cmd := &cobra.Command{
		Use:    "_server",
		Short:  "Run the multiplexer server (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(socketLabel)
		},
	}
	cmd.Flags().StringVar(&socketLabel, "socket", defaultSocketName, "Socket name")
	return cmd
}

func runServer(socketLabel string) error {
	lock, err := ipc.AcquirePidLock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	sockPath := socketdir.Path(socketdir.TypeServer, socketLabel)
	ln, err := ipc.Listen(sockPath)
	if err != nil {
		return err
	}

	logger := logging.NewRing(2000)
	srv := mux.NewServer(sockPath, logger)

	sourceServerConfig(srv)

	ipc.StartServer(srv, ln)
	return nil
}

// sourceServerConfig runs the configured command-language startup script
// (spec.md §6's /etc/gomux.conf-then-~/.gomux.conf chain) as a sequence
// of unattached commands against the fresh server, one Submit call per
// line. A missing config file or an unset ServerConfigFile is not an
// error -- gomux runs on its built-in defaults, exactly like an
// unconfigured tmux.
func sourceServerConfig(srv *mux.Server) {
	cfg, err := config.Load()
	if err != nil || cfg.ServerConfigFile == "" {
		return
	}
	data, err := os.ReadFile(cfg.ServerConfigFile)
	if err != nil {
		return
	}
	for _, line := range configLines(string(data)) {
		_ = srv.Submit("", line, cmdqueue.FindState{}, cmdqueue.KeyEvent{})
	}
}

// configLines splits a command-language script into its non-blank,
// non-comment lines, the same '#'-prefixed-comment convention
// tmux.conf uses.
func configLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if line := trimConfigLine(s[start:i]); line != "" {
				out = append(out, line)
			}
			start = i + 1
		}
	}
	return out
}

func trimConfigLine(line string) string {
	start := 0
	for start < len(line) && (line[start] == ' ' || line[start] == '\t' || line[start] == '\r') {
		start++
	}
	trimmed := line[start:]
	if trimmed == "" || trimmed[0] == '#' {
		return ""
	}
	return trimmed
}
