// Package mux implements the entity graph of spec.md §3/§4.H: the
// server-wide Server singleton and the Session/Window/Winlink/Pane
// entities it owns, plus the command-verb dispatch table that the
// command queue (internal/cmdqueue) invokes into.
//
// Grounded on dcosson-h2/internal/virtualterminal.VT (Ptm/Cmd/Mu field
// shape, StartPTY, OSC 10/11 echo, resize) and
// dcosson-h2/internal/session/session.go's Session struct, generalized
// from "one VT per daemon" to spec.md's full pane/window/session graph:
// Pane embeds a VT-shaped struct but drives internal/screen.Screen
// through internal/vtparse.Parser instead of calling into a vendored
// terminal emulator.
package mux

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"

	"gomux/internal/options"
	"gomux/internal/screen"
	"gomux/internal/vtparse"
)

// Pane is a running command attached to a PTY (spec.md §3 Pane).
type Pane struct {
	mu sync.Mutex

	ID       int
	WindowID int // weak back-edge (spec.md §9: "pane->window back-edge" is weak)

	Ptm *os.File  // PTY master, owned by the pane; nil once Dead
	Cmd *exec.Cmd // child process

	Screen *screen.Screen
	parser *vtparse.Parser

	Options *options.Tree // parent: window

	Title       string
	CurrentPath string
	StartCmd    string // the command line used to spawn this pane, for respawn/rename

	// OscFg/OscBg cache OSC 10/11 query responses (foreground/background
	// colour), grounded on VT.OscFg/OscBg + RespondOSCColors.
	OscFg, OscBg string

	// Modes is the pane's mode stack (spec.md §3: "mode stack
	// (copy-mode, buffer-mode, view-mode, etc.)"). gomux tracks only the
	// stack of mode names; the modes' own UIs (copy-mode search, etc.)
	// are out of core scope per spec.md §1.
	Modes []string

	Dead       bool // fd == -1: exited but may linger until modes clear
	ExitStatus int
	exitedAt   time.Time

	RemainOnExit bool

	lastOutput time.Time

	taps      map[int]func([]byte)
	nextTapID int
}

// AddTap registers fn to receive a copy of every raw byte chunk read
// from this pane's child, alongside the normal screen-grid write path
// (spec.md §4.J: "the server tracks two offsets into the grid's write
// stream" per pane a control-mode client watches). Returns an id for
// RemoveTap. Grounded on internal/ipc's Client.Output hook, generalized
// from one full-redraw sink per client to one raw-byte sink per pane.
func (p *Pane) AddTap(fn func([]byte)) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.taps == nil {
		p.taps = make(map[int]func([]byte))
	}
	id := p.nextTapID
	p.nextTapID++
	p.taps[id] = fn
	return id
}

// RemoveTap unregisters a tap previously returned by AddTap.
func (p *Pane) RemoveTap(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.taps, id)
}

func (p *Pane) snapshotTaps() []func([]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.taps) == 0 {
		return nil
	}
	out := make([]func([]byte), 0, len(p.taps))
	for _, fn := range p.taps {
		out = append(out, fn)
	}
	return out
}

// NewPane creates a pane with a fresh screen/parser pair backing it, not
// yet started; call StartPTY to spawn the child.
func NewPane(id, windowID, cols, rows, historyLimit int, parentOpts *options.Tree) *Pane {
	p := &Pane{
		ID:       id,
		WindowID: windowID,
		Screen:   screen.NewScreen(cols, rows, historyLimit),
		Options:  options.NewTree(parentOpts, options.PaneTable, options.Aliases),
	}
	wc := screen.NewWriteContext(p.Screen, "", nil)
	sink := screen.NewSink(wc)
	sink.OnTitle(func(t string) { p.mu.Lock(); p.Title = t; p.mu.Unlock() })
	p.parser = vtparse.New(sink)
	return p
}

// StartPTY spawns command in a PTY sized cols x rows (spec.md §4.H:
// "owns its PTY fds and child pid"), grounded on VT.StartPTY.
func (p *Pane) StartPTY(env []string, dir, command string, args []string, cols, rows int) error {
	p.Cmd = exec.Command(command, args...)
	p.Cmd.Dir = dir
	p.Cmd.Env = env
	ptm, err := pty.StartWithSize(p.Cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return fmt.Errorf("start pane command: %w", err)
	}
	p.Ptm = ptm
	p.StartCmd = command
	return nil
}

// PipeOutput reads child PTY output into the pane's parser until EOF,
// calling onData after each chunk so the caller can schedule a redraw;
// grounded on VT.PipeOutput.
func (p *Pane) PipeOutput(onData func()) {
	buf := make([]byte, 4096)
	for {
		n, err := p.Ptm.Read(buf)
		if n > 0 {
			p.respondOSCQueries(buf[:n])
			p.mu.Lock()
			p.lastOutput = time.Now()
			p.parser.Feed(buf[:n], p.lastOutput)
			p.mu.Unlock()
			if taps := p.snapshotTaps(); len(taps) > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				for _, fn := range taps {
					fn(chunk)
				}
			}
			if onData != nil {
				onData()
			}
		}
		if err != nil {
			p.markExited(err)
			return
		}
	}
}

// respondOSCQueries answers OSC 10/11 "what colour are you" queries from
// the child using the cached palette, grounded on VT.RespondOSCColors.
func (p *Pane) respondOSCQueries(data []byte) {
	p.mu.Lock()
	fg, bg := p.OscFg, p.OscBg
	p.mu.Unlock()
	if fg != "" && bytes.Contains(data, []byte("\033]10;?")) {
		fmt.Fprintf(p.Ptm, "\033]10;%s\033\\", fg)
	}
	if bg != "" && bytes.Contains(data, []byte("\033]11;?")) {
		fmt.Fprintf(p.Ptm, "\033]11;%s\033\\", bg)
	}
}

func (p *Pane) markExited(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Dead = true
	p.exitedAt = time.Now()
	if p.Cmd != nil && p.Cmd.ProcessState != nil {
		p.ExitStatus = p.Cmd.ProcessState.ExitCode()
	}
}

// Tick advances the parser's inactivity timer (spec.md §4.F: "a 5-second
// quiet period returns it to ground").
func (p *Pane) Tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parser.Tick(now)
}

// Write sends bytes to the child's PTY (keystrokes, send-keys).
func (p *Pane) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Dead || p.Ptm == nil {
		return 0, fmt.Errorf("pane %d: no PTY (exited)", p.ID)
	}
	return p.Ptm.Write(data)
}

// Resize resizes the pane's screen and PTY together.
func (p *Pane) Resize(cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screen.Resize(cols, rows)
	if p.Ptm != nil {
		pty.Setsize(p.Ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	}
}

// IsIdle reports whether the pane has produced no output for at least d
// (grounded on VT.IsIdle, generalized to a caller-supplied threshold
// since spec.md's monitor-silence option is itself configurable).
func (p *Pane) IsIdle(d time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.lastOutput.IsZero() && time.Since(p.lastOutput) > d
}

// DestroyReady reports whether a dead pane may actually be torn down
// (spec.md §4.H: "only actually destroyed once destroy_ready holds (all
// modes cleared, output drained)").
func (p *Pane) DestroyReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Dead && len(p.Modes) == 0
}

// PushMode/PopMode manage the pane's mode stack.
func (p *Pane) PushMode(name string) {
	p.mu.Lock()
	p.Modes = append(p.Modes, name)
	p.mu.Unlock()
}

func (p *Pane) PopMode() {
	p.mu.Lock()
	if len(p.Modes) > 0 {
		p.Modes = p.Modes[:len(p.Modes)-1]
	}
	p.mu.Unlock()
}

// Close releases the pane's PTY and waits for the child, called when the
// server destroys the pane (DestroyReady is not checked first).
func (p *Pane) Close() {
	p.mu.Lock()
	ptm := p.Ptm
	p.Ptm = nil
	p.mu.Unlock()
	if ptm != nil {
		ptm.Close()
	}
	if p.Cmd != nil && p.Cmd.Process != nil {
		p.Cmd.Wait()
	}
}
