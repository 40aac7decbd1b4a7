package ipc

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"

	"gomux/internal/cmdqueue"
	"gomux/internal/control"
	"gomux/internal/mux"
)

// controlRegistry tracks every attached control-mode client for one
// running server, so the scheduler ticker can pace pane output and
// evaluate subscriptions without handleConn's goroutines exposing their
// *control.Client anywhere else.
type controlRegistry struct {
	mu          sync.Mutex
	clients     map[string]*control.Client
	lastSubTick time.Time
}

func newControlRegistry() *controlRegistry {
	return &controlRegistry{clients: make(map[string]*control.Client)}
}

func (r *controlRegistry) add(cc *control.Client) {
	r.mu.Lock()
	r.clients[cc.ID] = cc
	r.mu.Unlock()
}

func (r *controlRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
}

func (r *controlRegistry) snapshot() []*control.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*control.Client, 0, len(r.clients))
	for _, cc := range r.clients {
		out = append(out, cc)
	}
	return out
}

// tick runs pacing every call (spec.md: "on each writable signal") and
// subscription evaluation at most once a second, matching the two
// different cadences spec.md §4.J assigns to each.
func (r *controlRegistry) tick(now time.Time) {
	clients := r.snapshot()
	for _, cc := range clients {
		cc.Flush(now)
	}

	r.mu.Lock()
	due := r.lastSubTick.IsZero() || now.Sub(r.lastSubTick) >= time.Second
	if due {
		r.lastSubTick = now
	}
	r.mu.Unlock()
	if !due {
		return
	}
	for _, cc := range clients {
		cc.EvaluateSubscriptions(now)
	}
}

// handleControlConn services one -C/-CC connection: attach as usual,
// then switch to control mode's line-oriented protocol (spec.md §4.J/
// §6) instead of the binary framed data/control stream ordinary attach
// connections speak. There is no teacher source for this specific
// line-reading loop; it is grounded on readClientInput's "read until
// disconnect, dispatch each unit of input" shape, generalized from
// length-prefixed frames to newline-terminated command lines.
func handleControlConn(srv *mux.Server, reg *controlRegistry, cl *mux.Client, sess *mux.Session, conn net.Conn) {
	cc := control.New(srv, cl)
	cc.WriteLine = func(line string) {
		conn.Write([]byte(line + "\n"))
	}
	cl.Output = func(data []byte) {} // control clients never receive raw redraw frames

	for _, win := range sess.Windows() {
		for _, pane := range win.Panes {
			cc.Watch(pane)
		}
	}

	reg.add(cc)
	defer reg.remove(cc.ID)
	defer cc.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		find := cmdqueue.FindState{SessionName: sess.Name}
		cc.RunCommand(line, find)
		if cc.Exited() || cl.IsExited() {
			return
		}
	}
}
