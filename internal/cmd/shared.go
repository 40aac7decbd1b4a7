package cmd

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/pflag"

	"gomux/internal/ipc"
	"gomux/internal/socketdir"
)

// defaultSocketName is the label gomux's server listens under when
// neither -L nor -S names one explicitly (tmux's own unnamed-default
// socket convention, spec.md §6).
const defaultSocketName = "default"

// socketFlags holds the -L/-S pair every subcommand that talks to a
// running server accepts, grounded on the teacher's per-command
// cmd.Flags() binding style (e.g. send.go's --priority/--file).
type socketFlags struct {
	label string // -L name
	path  string // -S explicit path, overrides -L
}

func (f *socketFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.label, "socket-name", "L", defaultSocketName, "Socket name (under the default socket directory)")
	fs.StringVarP(&f.path, "socket-path", "S", "", "Explicit socket path, overriding -L")
}

func (f *socketFlags) resolve() string {
	if f.path != "" {
		return f.path
	}
	return socketdir.Path(socketdir.TypeServer, f.label)
}

// dialExisting connects to an already-running server only; it never
// starts one. Used by every subcommand that addresses a session that
// ought to already exist (list-sessions, send-keys, kill-session,
// kill-server) -- spawning a fresh, empty server to answer "is anything
// running" would be the wrong answer to that question.
func dialExisting(sockPath string) (net.Conn, error) {
	conn, err := net.DialTimeout("unix", sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("no server running on %s: %w", sockPath, err)
	}
	return conn, nil
}

// dialOrStart connects to the server socket, auto-starting a new server
// via ipc.ForkServer when nothing is listening yet -- tmux's familiar
// "the first command against a socket name starts the server" behavior
// (spec.md §6). Reserved for attach/new-session, the two subcommands
// whose whole point is to bring a session into being.
func dialOrStart(sockPath, socketLabel string) (net.Conn, error) {
	conn, err := net.DialTimeout("unix", sockPath, 2*time.Second)
	if err == nil {
		return conn, nil
	}
	if err := ipc.ForkServer(socketLabel); err != nil {
		return nil, fmt.Errorf("start server: %w", err)
	}
	return net.DialTimeout("unix", sockPath, 2*time.Second)
}

// request performs one dial-handshake-close round trip against an
// already-running server: list-sessions, send-keys, kill-session,
// kill-server all resolve, queue, and disconnect without ever switching
// into the framed attach protocol.
func request(sf *socketFlags, req *ipc.Request) (*ipc.Response, error) {
	conn, err := dialExisting(sf.resolve())
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return roundTrip(conn, req)
}

// requestOrStart is request's auto-starting counterpart, used only by
// new-session -d (create a detached session, starting the server if
// this is the first command against this socket name).
func requestOrStart(sf *socketFlags, req *ipc.Request) (*ipc.Response, error) {
	conn, err := dialOrStart(sf.resolve(), sf.label)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return roundTrip(conn, req)
}

func roundTrip(conn net.Conn, req *ipc.Request) (*ipc.Response, error) {
	if err := ipc.SendRequest(conn, req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	resp, err := ipc.ReadResponse(conn)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	return resp, nil
}

// currentDir returns the working directory a new pane should start in,
// falling back to $HOME on error the way the teacher's sandbox.go falls
// back when os.Getwd fails inside a constrained environment.
func currentDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return os.Getenv("HOME")
	}
	return wd
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}
