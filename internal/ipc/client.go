package ipc

import (
	"encoding/json"
	"net"

	"github.com/google/uuid"

	"gomux/internal/cmdqueue"
	"gomux/internal/format"
	"gomux/internal/keycode"
	"gomux/internal/mux"
)

// handleConn serves one connection end to end: handshake, attach the
// mux.Client to a session, then alternate between reading frames and
// dispatching them until the client disconnects or detaches. Grounded
// on handleAttach/readClientInput's shape (handshake response, then a
// framed read loop keyed on frame type), generalized from one fixed
// session per daemon to an explicit session name per request.
func handleConn(srv *mux.Server, reg *controlRegistry, conn net.Conn) {
	defer conn.Close()

	req, err := ReadRequest(conn)
	if err != nil {
		return
	}

	switch req.Type {
	case "list-sessions":
		SendResponse(conn, &Response{OK: true, Sessions: srv.SessionNames()})
		return
	case "send-keys":
		handleSendKeys(srv, conn, req)
		return
	case "attach", "":
		// fall through to the attach flow below
	default:
		SendResponse(conn, &Response{Error: "unknown request type: " + req.Type})
		return
	}

	cl := &mux.Client{
		ID:       uuid.NewString(),
		ReadOnly: req.ReadOnly,
		Control:  req.Control,
		Cols:     req.Cols,
		Rows:     req.Rows,
	}
	cl.Output = func(data []byte) { WriteFrame(conn, FrameTypeData, data) }
	cl.Print = func(isError bool, text string) {
		prefix := ""
		if isError {
			prefix = "error: "
		}
		WriteFrame(conn, FrameTypeData, []byte("\r\n"+prefix+text+"\r\n"))
	}

	cols, rows := req.Cols, req.Rows
	if cols <= 0 || rows <= 0 {
		cols, rows = 80, 24
	}
	sess, err := srv.AttachClient(cl, req.Name, req.Dir, req.Command)
	if err != nil {
		SendResponse(conn, &Response{Error: err.Error()})
		return
	}
	srv.RegisterClient(cl)
	defer srv.DetachClient(cl)

	if wl := sess.CurrentWinlink(); wl != nil {
		wl.Window.Resize(cols, rows)
	}

	if err := SendResponse(conn, &Response{OK: true, Session: sess.Name}); err != nil {
		return
	}

	if cl.Control {
		handleControlConn(srv, reg, cl, sess, conn)
		return
	}

	renderNow(srv, cl)
	readClientInput(srv, cl, conn)
}

// handleSendKeys services a one-shot request that submits a full command
// line to the server-wide queue and returns without ever switching the
// connection into the framed protocol. Despite the name (carried over
// from the teacher's send.go, the one-shot "talk to a running agent
// without attaching" request this generalizes), the submitted line is
// not limited to tmux's send-keys verb: Server.Submit parses it through
// the same grammar an attached client's command prompt uses, so this is
// also how the `gomux new-session`/`kill-session`/`send-keys` CLI
// subcommands all reach the server -- one line in, queued and run, no
// response beyond success/failure.
func handleSendKeys(srv *mux.Server, conn net.Conn, req *Request) {
	find := cmdqueue.FindState{SessionName: req.Name}
	if err := srv.Submit("", req.Keys, find, cmdqueue.KeyEvent{}); err != nil {
		SendResponse(conn, &Response{Error: err.Error()})
		return
	}
	SendResponse(conn, &Response{OK: true})
}

// readClientInput reads framed input from an attached connection until
// disconnect, dispatching data frames through the key engine and
// control frames as resize requests; grounded on readClientInput's
// per-frame-type switch.
func readClientInput(srv *mux.Server, cl *mux.Client, conn net.Conn) {
	for {
		ft, payload, err := ReadFrame(conn)
		if err != nil {
			return
		}
		switch ft {
		case FrameTypeData:
			dispatchInput(srv, cl, payload)
		case FrameTypeControl:
			var ctrl ResizeControl
			if json.Unmarshal(payload, &ctrl) != nil || ctrl.Type != "resize" {
				continue
			}
			handleResize(srv, cl, ctrl.Cols, ctrl.Rows)
		}

		if cl.IsExited() {
			return
		}
	}
}

// dispatchInput decodes payload into key events one at a time, running
// each through Server.DispatchKey; a key nothing binds falls through to
// the client's active pane as a raw keystroke, matching tmux's rule that
// only bound keys are intercepted (spec.md §4.C Dispatch).
func dispatchInput(srv *mux.Server, cl *mux.Client, payload []byte) {
	for len(payload) > 0 {
		code, n := keycode.Decode(payload)
		if n == 0 {
			return
		}
		raw := string(payload[:n])
		if !srv.DispatchKey(cl, code, raw) {
			_, _, pane, err := srv.Resolve(cmdqueue.FindState{}, cl)
			if err == nil && pane != nil {
				pane.Write(payload[:n])
			}
		}
		payload = payload[n:]
	}
}

func handleResize(srv *mux.Server, cl *mux.Client, cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	cl.SetSize(cols, rows)
	_, win, _, err := srv.Resolve(cmdqueue.FindState{}, cl)
	if err != nil || win == nil {
		return
	}
	win.Resize(cols, rows)
	renderNow(srv, cl)
}

func renderNow(srv *mux.Server, cl *mux.Client) {
	_, _, pane, err := srv.Resolve(cmdqueue.FindState{}, cl)
	if err != nil || pane == nil || cl.Output == nil {
		return
	}
	cl.Output(format.RenderScreen(pane.Screen))
}

// broadcastRenders redraws every attached client's active pane, called
// once per scheduler tick from StartServer's ticker goroutine -- the
// "each attached client periodically renders pane grids to its TTY
// through the draw/format layer" leg of spec.md §4 data flow.
func broadcastRenders(srv *mux.Server) {
	for _, cl := range srv.ListClients() {
		if cl.Control {
			continue // control-mode clients are served by internal/control instead
		}
		renderNow(srv, cl)
	}
}
