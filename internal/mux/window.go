package mux

import (
	"fmt"
	"sync"

	"gomux/internal/options"
)

// WindowFlags track bell/activity/silence state (spec.md §3 Window,
// §4.H "Activity").
type WindowFlags uint8

const (
	FlagBell WindowFlags = 1 << iota
	FlagActivity
	FlagSilence
)

// Layout names the pane-arrangement algorithm for a window. Only the two
// simplest arrangements are implemented (SPEC_FULL.md §5 Non-goals:
// layout geometry algebra is out of scope beyond "the minimum needed to
// exercise the pane ownership graph").
type Layout int

const (
	LayoutEvenHorizontal Layout = iota
	LayoutEvenVertical
)

// Window groups one or more panes arranged by a layout (spec.md §3
// Window).
type Window struct {
	mu sync.Mutex

	ID   int
	Name string

	Panes        []*Pane // ownership: a pane belongs to exactly one window
	ActivePaneID int

	Cols, Rows int // size in character cells (x,y)
	Layout     Layout

	Flags WindowFlags

	Options *options.Tree // parent: server

	winlinks map[string]int // sessionName -> winlink index, weak back-edges
}

// NewWindow creates an empty window (no panes yet); the caller adds at
// least one pane before the window is usable.
func NewWindow(id int, name string, cols, rows int, parentOpts *options.Tree) *Window {
	return &Window{
		ID:       id,
		Name:     name,
		Cols:     cols,
		Rows:     rows,
		Options:  options.NewTree(parentOpts, options.WindowTable, options.Aliases),
		winlinks: make(map[string]int),
	}
}

// AddPane appends p to the window and, if it is the first pane, makes it
// active.
func (w *Window) AddPane(p *Pane) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Panes = append(w.Panes, p)
	if len(w.Panes) == 1 {
		w.ActivePaneID = p.ID
	}
	w.relayout()
}

// RemovePane removes the pane with id from the window, promoting a
// neighbor to active if it was the active pane. Returns false if no such
// pane is a member of this window.
func (w *Window) RemovePane(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := -1
	for i, p := range w.Panes {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	w.Panes = append(w.Panes[:idx:idx], w.Panes[idx+1:]...)
	if w.ActivePaneID == id && len(w.Panes) > 0 {
		next := idx
		if next >= len(w.Panes) {
			next = len(w.Panes) - 1
		}
		w.ActivePaneID = w.Panes[next].ID
	}
	w.relayout()
	return true
}

// ActivePane returns the window's current active pane, or nil if empty.
func (w *Window) ActivePane() *Pane {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.Panes {
		if p.ID == w.ActivePaneID {
			return p
		}
	}
	return nil
}

// SetActivePane makes the pane with id active if it is a member
// (spec.md invariant: "exactly one pane may be the window's active
// pane").
func (w *Window) SetActivePane(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.Panes {
		if p.ID == id {
			w.ActivePaneID = id
			return nil
		}
	}
	return fmt.Errorf("window %d: pane %d is not a member", w.ID, id)
}

// PaneByID finds a member pane by id.
func (w *Window) PaneByID(id int) *Pane {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.Panes {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Empty reports whether the window owns no panes (all destroyed), which
// per spec.md §3 Window means it is ready to be dropped from the global
// windows index once no winlink references it either.
func (w *Window) Empty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.Panes) == 0
}

// relayout recomputes each pane's on-screen cell geometry under the
// window's current Layout. Only even-horizontal/even-vertical splits are
// implemented (Non-goals: no generalized layout description language);
// it resizes each pane's screen/PTY to its computed share.
func (w *Window) relayout() {
	n := len(w.Panes)
	if n == 0 {
		return
	}
	switch w.Layout {
	case LayoutEvenVertical:
		rowsEach := w.Rows / n
		extra := w.Rows - rowsEach*n
		for i, p := range w.Panes {
			rows := rowsEach
			if i < extra {
				rows++
			}
			if rows < 1 {
				rows = 1
			}
			p.Resize(w.Cols, rows)
		}
	default: // LayoutEvenHorizontal
		colsEach := w.Cols / n
		extra := w.Cols - colsEach*n
		for i, p := range w.Panes {
			cols := colsEach
			if i < extra {
				cols++
			}
			if cols < 1 {
				cols = 1
			}
			p.Resize(cols, w.Rows)
		}
	}
}

// Resize changes the window's overall cell geometry and relayouts its
// panes.
func (w *Window) Resize(cols, rows int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Cols, w.Rows = cols, rows
	w.relayout()
}

// link/unlink/winlinkCount track which sessions reference this window via a
// winlink, purely so Window.Empty-adjacent bookkeeping (windows map
// pruning) in Server can tell "no winlink references it" (spec.md
// invariant #3) without Server walking every session on every removal.
func (w *Window) link(sessionName string, index int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.winlinks[sessionName] = index
}

func (w *Window) unlink(sessionName string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.winlinks, sessionName)
}

func (w *Window) winlinkCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.winlinks)
}

// Winlink is the (session, window, index) tuple visible in a session's
// window list (spec.md §3 Winlink).
type Winlink struct {
	SessionName string
	Window      *Window // strong reference: the union of winlinks keeps the window alive
	Index       int
}
