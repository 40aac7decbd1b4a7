package mux

import (
	"fmt"
	"sync"
	"time"

	"gomux/internal/options"
	"gomux/internal/tmpl"
)

// Session is a named, ordered collection of window links (spec.md §3
// Session).
type Session struct {
	mu sync.Mutex

	ID          int
	Name        string
	CreatedAt   time.Time
	Winlinks    []*Winlink
	CurrentIdx  int // index into Winlinks of the current window
	PreviousIdx int // -1 if none yet

	Options *options.Tree       // parent: server
	Env     map[string]string   // parent: server environment
	GroupID string              // session group membership, "" if ungrouped

	AttachedClients int // count of clients currently attached
	refcount        int // clients + queued items referencing this session

	DefaultWorkingDir string
}

// NewSession creates an empty session (no windows yet).
func NewSession(id int, name string, parentOpts *options.Tree, parentEnv map[string]string, dir string) *Session {
	env := make(map[string]string, len(parentEnv))
	for k, v := range parentEnv {
		env[k] = v
	}
	return &Session{
		ID:                id,
		Name:              name,
		CreatedAt:         time.Now(),
		PreviousIdx:       -1,
		Options:           options.NewTree(parentOpts, options.SessionTable, options.Aliases),
		Env:               env,
		DefaultWorkingDir: dir,
	}
}

// Ref/Unref implement the session's reference count (spec.md invariant
// #2: refcount == attached clients + queued items referencing it).
func (s *Session) Ref() {
	s.mu.Lock()
	s.refcount++
	s.mu.Unlock()
}

func (s *Session) Unref() {
	s.mu.Lock()
	s.refcount--
	s.mu.Unlock()
}

func (s *Session) Refcount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refcount + s.AttachedClients
}

// UnrefAttached decrements AttachedClients, called when a connected
// client disconnects or runs detach-client.
func (s *Session) UnrefAttached() {
	s.mu.Lock()
	if s.AttachedClients > 0 {
		s.AttachedClients--
	}
	s.mu.Unlock()
}

// AddWindow links w into the session at the next free index (tmux's
// "fill the gap" convention, via internal/tmpl.NextWindowIndex).
func (s *Session) AddWindow(w *Window, baseIndex int) *Winlink {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := make([]int, len(s.Winlinks))
	for i, wl := range s.Winlinks {
		used[i] = wl.Index
	}
	idx := tmpl.NextWindowIndex(used, baseIndex)
	wl := &Winlink{SessionName: s.Name, Window: w, Index: idx}
	s.Winlinks = append(s.Winlinks, wl)
	w.link(s.Name, idx)
	if len(s.Winlinks) == 1 {
		s.CurrentIdx = 0
	}
	return wl
}

// RemoveWindow unlinks the window at winlink index idx, returning the
// removed Winlink (the caller is responsible for checking whether the
// underlying Window is now unreferenced and should be pruned from the
// server's global index, per spec.md invariant #3).
func (s *Session) RemoveWindow(idx int) (*Winlink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := -1
	for i, wl := range s.Winlinks {
		if wl.Index == idx {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("session %s: no window at index %d", s.Name, idx)
	}
	wl := s.Winlinks[pos]
	s.Winlinks = append(s.Winlinks[:pos:pos], s.Winlinks[pos+1:]...)
	wl.Window.unlink(s.Name)
	if len(s.Winlinks) == 0 {
		s.CurrentIdx = -1
		return wl, nil
	}
	if s.CurrentIdx >= len(s.Winlinks) {
		s.CurrentIdx = len(s.Winlinks) - 1
	}
	return wl, nil
}

// CurrentWinlink returns the session's current window link, or nil if
// the session has no windows.
func (s *Session) CurrentWinlink() *Winlink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CurrentIdx < 0 || s.CurrentIdx >= len(s.Winlinks) {
		return nil
	}
	return s.Winlinks[s.CurrentIdx]
}

// WinlinkByIndex finds a winlink by its visible index.
func (s *Session) WinlinkByIndex(idx int) *Winlink {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, wl := range s.Winlinks {
		if wl.Index == idx {
			return wl
		}
	}
	return nil
}

// SelectWindow makes the winlink at idx current, recording the previous
// one (spec.md §3 Session: "current window link, previous window link").
func (s *Session) SelectWindow(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, wl := range s.Winlinks {
		if wl.Index == idx {
			s.PreviousIdx = s.CurrentIdx
			s.CurrentIdx = i
			return nil
		}
	}
	return fmt.Errorf("session %s: no window at index %d", s.Name, idx)
}

// NextWindow/PreviousWindow cycle the current winlink (spec.md
// next-window/previous-window key bindings).
func (s *Session) NextWindow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Winlinks) == 0 {
		return fmt.Errorf("session %s: no windows", s.Name)
	}
	s.PreviousIdx = s.CurrentIdx
	s.CurrentIdx = (s.CurrentIdx + 1) % len(s.Winlinks)
	return nil
}

func (s *Session) PreviousWindow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Winlinks) == 0 {
		return fmt.Errorf("session %s: no windows", s.Name)
	}
	s.PreviousIdx = s.CurrentIdx
	s.CurrentIdx = (s.CurrentIdx - 1 + len(s.Winlinks)) % len(s.Winlinks)
	return nil
}

// Windows returns every window linked into this session, in winlink
// order.
func (s *Session) Windows() []*Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Window, len(s.Winlinks))
	for i, wl := range s.Winlinks {
		out[i] = wl.Window
	}
	return out
}
