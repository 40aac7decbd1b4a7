package mux

import (
	"time"

	"gomux/internal/tmpl"
)

// defaultSessionName and deriveWindowName (server.go) cover the
// "assign a name when the client didn't give one" half of spec.md §3's
// naming rule. ApplyAutomaticRename covers the other half: a window
// whose automatic-rename option is on tracks its active pane's reported
// title: the window name is set to that title when it is non-empty and
// left unchanged otherwise. No check against other window names is made.
func (s *Server) ApplyAutomaticRename(win *Window) {
	if win == nil {
		return
	}
	autoRename, _ := win.Options.Get("automatic-rename")
	if !autoRename.Flag {
		return
	}
	pane := win.ActivePane()
	if pane == nil {
		return
	}
	pane.mu.Lock()
	title := pane.Title
	pane.mu.Unlock()
	if title == "" {
		return
	}
	win.mu.Lock()
	win.Name = title
	win.mu.Unlock()
}

// Tick advances every pane's input-parser idle timer and, for windows
// with automatic-rename on, refreshes the window name from its active
// pane's title. Meant to be called once per scheduler tick by whatever
// owns the server's run loop (internal/ipc's accept/serve goroutine).
func (s *Server) Tick(now time.Time) {
	s.mu.Lock()
	panes := make([]*Pane, 0, len(s.Panes))
	for _, p := range s.Panes {
		panes = append(panes, p)
	}
	windows := make([]*Window, 0, len(s.Windows))
	for _, w := range s.Windows {
		windows = append(windows, w)
	}
	clientIDs := make([]string, 0, len(s.ClientQueues))
	for id := range s.ClientQueues {
		clientIDs = append(clientIDs, id)
	}
	s.mu.Unlock()

	for _, p := range panes {
		p.Tick(now)
	}
	for _, w := range windows {
		s.ApplyAutomaticRename(w)
	}

	// Pump every queue's runnable head items. Grounded on the teacher's
	// RunDelivery select loop, generalized here to a tick-driven pump
	// since gomux's queues have no dedicated goroutine of their own: the
	// scheduler tick (internal/ipc's 100ms ticker) is the only run loop.
	s.Queue.Next("")
	for _, id := range clientIDs {
		s.ClientQueue(id).Next(id)
	}
}

// renameWindowAvoidingCollisions is used when a caller wants a fresh,
// de-duplicated window name rather than the literal command basename
// (e.g. a future `new-window` enhancement); kept small and separate from
// deriveWindowName so collision avoidance stays opt-in.
func renameWindowAvoidingCollisions(base string, existing []string) string {
	return tmpl.AutoIncrement(base, existing)
}
