// Package control implements spec.md §4.J: the line-oriented control-mode
// protocol, its per-pane output pacing, and named subscriptions.
//
// No file in the retrieval pack implements anything like tmux's control
// mode, so this package's wire protocol (%output/%extended-output/
// %begin/%end/%error/%pause/%continue/%subscription-changed) and its
// pacing algorithm are grounded directly on spec.md §4.J/§6's own
// description rather than a copied production source. The surrounding
// shape -- a per-client struct whose pacing state is advanced by the
// same scheduler tick that already pumps internal/cmdqueue and
// internal/ipc's render broadcast -- follows the teacher's
// single-ticker-drives-everything pattern (dcosson-h2/internal/daemon's
// accept/scheduler loop, mirrored in internal/ipc's StartServer).
package control

import (
	"sync"
	"time"

	"gomux/internal/mux"
)

const (
	// DefaultHighWatermark is CONTROL_BUFFER_HIGH from spec.md's worked
	// example: the byte budget the pacing formula divides up each turn.
	DefaultHighWatermark = 8192
	// DefaultWriteMinimum is CONTROL_WRITE_MINIMUM: the floor a budget
	// is clamped to so a client with many panes never starves entirely.
	DefaultWriteMinimum = 32
	// MaximumAge is CONTROL_MAXIMUM_AGE (spec.md §4.J, §4 edge cases): a
	// hard ceiling on undelivered-output age a client can carry no
	// matter what pause-age says, past which it is forced to pause or
	// exit.
	MaximumAge = 5 * time.Minute
)

// PaneMode is a pane's visibility state to one control client (spec.md
// §4.J: "the pane is OFF/PAUSED").
type PaneMode int

const (
	PaneOn PaneMode = iota
	PaneOff
	PanePaused
)

// block is one chunk of pane output awaiting delivery, queued whole and
// peeled off byte-by-byte as pacing budget allows.
type block struct {
	data []byte
	age  time.Time
}

// paneState is one pane's delivery bookkeeping for one control client
// (spec.md §4.J: "the server tracks two offsets into the grid's write
// stream: offset (bytes delivered) and queued (bytes allocated to
// blocks)").
type paneState struct {
	pane  *mux.Pane
	tapID int

	mode PaneMode

	offset int64
	queued int64

	blocks []block
}

func (ps *paneState) pendingBytes() int64 {
	return ps.queued - ps.offset
}

// Client is one attached control-mode connection. It owns pacing state
// for every pane the attached mux.Client can see and the set of named
// subscriptions that client has registered.
type Client struct {
	mu sync.Mutex

	ID  string
	srv *mux.Server
	mc  *mux.Client

	// WriteLine sends one already-formatted protocol line (without a
	// trailing newline) to the client's socket; internal/ipc sets this
	// at attach time to wrap the connection's framed writer.
	WriteLine func(string)

	NoOutput bool // CONTROL_NOOUTPUT: pane data is consumed but never sent

	HighWatermark int
	WriteMinimum  int
	PauseAfter    bool
	PauseAge      time.Duration

	exited bool

	panes      map[int]*paneState
	pendingIDs []int // FIFO of pane IDs with undelivered blocks

	subs       map[string]*subscription
	cmdSeq     int
	currentRun *commandRun
}

// New creates a control client bound to srv and the already-attached
// mc, with spec.md's documented pacing defaults.
func New(srv *mux.Server, mc *mux.Client) *Client {
	c := &Client{
		ID:            mc.ID,
		srv:           srv,
		mc:            mc,
		HighWatermark: DefaultHighWatermark,
		WriteMinimum:  DefaultWriteMinimum,
		PauseAge:      30 * time.Second,
		panes:         make(map[int]*paneState),
		subs:          make(map[string]*subscription),
	}
	c.installPrintHook()
	return c
}

// Watch starts tracking pane, taking over as its output sink for this
// client (spec.md: "for each pane the client has visibility into").
func (c *Client) Watch(pane *mux.Pane) {
	c.mu.Lock()
	if _, ok := c.panes[pane.ID]; ok {
		c.mu.Unlock()
		return
	}
	ps := &paneState{pane: pane, mode: PaneOn}
	c.panes[pane.ID] = ps
	c.mu.Unlock()

	tapID := pane.AddTap(func(data []byte) { c.onPaneData(pane.ID, data) })
	c.mu.Lock()
	ps.tapID = tapID
	c.mu.Unlock()
}

// Unwatch stops tracking pane and releases its tap.
func (c *Client) Unwatch(paneID int) {
	c.mu.Lock()
	ps, ok := c.panes[paneID]
	if ok {
		delete(c.panes, paneID)
	}
	c.mu.Unlock()
	if ok {
		ps.pane.RemoveTap(ps.tapID)
	}
}

// SetPaneMode changes how paneID's future output is handled: PaneOn
// queues it for delivery, PaneOff/PanePaused charge it as consumed
// without ever sending it (spec.md §4.J).
func (c *Client) SetPaneMode(paneID int, mode PaneMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ps, ok := c.panes[paneID]; ok {
		ps.mode = mode
	}
}

// onPaneData is the tap callback: either appends a new block and
// enqueues the pane as pending, or -- when output-suppressed -- charges
// the bytes as consumed without ever queuing them.
func (c *Client) onPaneData(paneID int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.panes[paneID]
	if !ok {
		return
	}
	if c.NoOutput || ps.mode != PaneOn {
		ps.offset += int64(len(data))
		ps.queued += int64(len(data))
		return
	}
	wasPending := len(ps.blocks) > 0
	ps.blocks = append(ps.blocks, block{data: data, age: time.Now()})
	ps.queued += int64(len(data))
	if !wasPending {
		c.pendingIDs = append(c.pendingIDs, paneID)
	}
}

// Close releases every pane tap this client holds, called once the
// owning connection detaches.
func (c *Client) Close() {
	c.mu.Lock()
	panes := make([]*paneState, 0, len(c.panes))
	for _, ps := range c.panes {
		panes = append(panes, ps)
	}
	c.panes = nil
	c.mu.Unlock()
	for _, ps := range panes {
		ps.pane.RemoveTap(ps.tapID)
	}
}
