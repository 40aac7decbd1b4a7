package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"gomux/internal/mux"
	"gomux/internal/socketdir"
)

// Listen binds path as an AF_UNIX listener, first probing for and
// clearing a stale socket left by a crashed server -- grounded directly
// on daemon.Run's "check if socket already exists ... stale socket,
// remove it" sequence.
func Listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ipc: create socket dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		conn, dialErr := net.DialTimeout("unix", path, 500*time.Millisecond)
		if dialErr == nil {
			conn.Close()
			return nil, fmt.Errorf("ipc: server already listening on %s", path)
		}
		os.Remove(path)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen on %s: %w", path, err)
	}
	return ln, nil
}

// AcquirePidLock takes the flock-guarded pid lock so two racing server
// starts don't both win the bind race (SPEC_FULL.md §1). Returns the
// held lock; the caller keeps it open for the server's lifetime.
func AcquirePidLock() (*flock.Flock, error) {
	lockPath := socketdir.PidLockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("ipc: create lock dir: %w", err)
	}
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ipc: acquire pid lock: %w", err)
	}
	if !ok {
		return nil, errors.New("ipc: another server is starting")
	}
	return fl, nil
}

// NewSysProcAttr returns the unix process attributes a forked daemon
// needs to detach from its parent's session (new session, no
// controlling terminal). The teacher's ForkDaemon calls a same-named
// helper that was never retrieved in this pack; this is a fresh,
// minimal implementation of what that call site needs.
func NewSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// ForkServer starts a server in a background process by re-execing with
// the hidden "_server" subcommand, grounded directly on
// daemon.ForkDaemon's re-exec/devnull/poll-for-socket pattern
// generalized from "one daemon per agent name" to "one server per
// socket path".
func ForkServer(socketName string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("ipc: find executable: %w", err)
	}

	cmd := exec.Command(exe, "_server", "--socket", socketName)
	cmd.SysProcAttr = NewSysProcAttr()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("ipc: open /dev/null: %w", err)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		devNull.Close()
		return fmt.Errorf("ipc: start server: %w", err)
	}
	go func() {
		cmd.Wait()
		devNull.Close()
	}()

	path := socketdir.Path(socketdir.TypeServer, socketName)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	return fmt.Errorf("ipc: server did not start (socket %s not found)", path)
}

// StartServer runs srv's accept loop on ln until ln is closed, plus a
// 100ms scheduler tick driving srv.Tick -- the home for the
// "periodically renders pane grids" responsibility spec.md §4.I/§4.K
// assign to the server side of an attach connection.
func StartServer(srv *mux.Server, ln net.Listener) {
	reg := newControlRegistry()
	stop := make(chan struct{})
	go runTicker(srv, ln, reg, stop)
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleConn(srv, reg, conn)
	}
}

func runTicker(srv *mux.Server, ln net.Listener, reg *controlRegistry, stop <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			srv.Tick(now)
			broadcastRenders(srv)
			reg.tick(now)
			shutdownIfEmpty(srv, ln)
		}
	}
}

// shutdownIfEmpty closes ln once srv reports it should exit (spec.md
// §4.I/§5 "exit-empty"), called on every tick of runTicker.
func shutdownIfEmpty(srv *mux.Server, ln net.Listener) {
	if srv.ShouldExit() {
		ln.Close()
		os.Remove(srv.SocketPath)
	}
}
