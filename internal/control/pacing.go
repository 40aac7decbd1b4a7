package control

import (
	"time"

	"gomux/internal/plumbing"
)

// Flush runs one pacing turn (spec.md §4.J Pacing): every pending pane
// gets an equal share of the client's write budget, drained oldest-block
// first with partial blocks carrying their remainder into the next
// call. Meant to be invoked once per scheduler tick (internal/ipc's
// ticker), mirroring the "on each writable signal" trigger spec.md
// describes for a real socket's writable callback.
func (c *Client) Flush(now time.Time) {
	c.mu.Lock()
	pendingIDs := append([]int(nil), c.pendingIDs...)
	c.mu.Unlock()
	if len(pendingIDs) == 0 {
		return
	}

	budget := c.budget(len(pendingIDs))

	var stillPending []int
	for _, id := range pendingIDs {
		if c.drainPane(id, budget, now) {
			stillPending = append(stillPending, id)
		}
	}

	c.mu.Lock()
	c.pendingIDs = stillPending
	c.mu.Unlock()
}

// budget computes (high-watermark - pending) / pending-panes / 3,
// clamped to WriteMinimum, per spec.md's pacing formula. "pending" is
// the client's total undelivered byte count across every pane.
func (c *Client) budget(pendingPanes int) int {
	c.mu.Lock()
	var pending int64
	for _, ps := range c.panes {
		pending += ps.pendingBytes()
	}
	high, min := c.HighWatermark, c.WriteMinimum
	c.mu.Unlock()

	if pendingPanes == 0 {
		return min
	}
	room := int64(high) - pending
	b := int(room / int64(pendingPanes) / 3)
	if b < min {
		b = min
	}
	return b
}

// drainPane emits up to budget bytes of paneID's oldest blocks, checking
// each block's age against PauseAge/MaximumAge first. It reports
// whether the pane still has undelivered data (and so belongs back on
// the pending list).
func (c *Client) drainPane(paneID, budget int, now time.Time) bool {
	c.mu.Lock()
	ps, ok := c.panes[paneID]
	if !ok || len(ps.blocks) == 0 {
		c.mu.Unlock()
		return false
	}

	oldest := ps.blocks[0]
	age := plumbing.SatSubTime(now, oldest.age)
	if action := c.tooFarBehind(age); action != actionNone {
		c.mu.Unlock()
		c.handleTooFarBehind(paneID, action)
		return action == actionPause // a paused pane keeps its backlog; an exited client has none left to report
	}

	remaining := budget
	var emitted []byte
	extended := c.PauseAfter
	for remaining > 0 && len(ps.blocks) > 0 {
		b := &ps.blocks[0]
		take := remaining
		if take > len(b.data) {
			take = len(b.data)
		}
		emitted = append(emitted, b.data[:take]...)
		b.data = b.data[take:]
		ps.offset += int64(take)
		remaining -= take
		if len(b.data) == 0 {
			ps.blocks = ps.blocks[1:]
		}
	}
	stillPending := len(ps.blocks) > 0
	writeLine := c.WriteLine
	ageMs := age.Milliseconds()
	c.mu.Unlock()

	if len(emitted) > 0 && writeLine != nil {
		if extended {
			writeLine(extendedOutputLine(paneID, ageMs, emitted))
		} else {
			writeLine(outputLine(paneID, emitted))
		}
	}
	return stillPending
}

type tooFarAction int

const (
	actionNone tooFarAction = iota
	actionPause
	actionExit
)

// tooFarBehind decides what spec.md's "too far behind" clause does for
// one block's age: past MaximumAge always forces an action; within that,
// PauseAfter set and age past PauseAge forces a pane pause, otherwise
// the client itself must exit.
func (c *Client) tooFarBehind(age time.Duration) tooFarAction {
	c.mu.Lock()
	pauseAfter, pauseAge := c.PauseAfter, c.PauseAge
	c.mu.Unlock()
	if age <= MaximumAge && (!pauseAfter || age <= pauseAge) {
		return actionNone
	}
	if pauseAfter {
		return actionPause
	}
	return actionExit
}

func (c *Client) handleTooFarBehind(paneID int, action tooFarAction) {
	switch action {
	case actionPause:
		c.SetPaneMode(paneID, PanePaused)
		if wl := c.WriteLine; wl != nil {
			wl(pauseLine(paneID))
		}
		c.mu.Lock()
		if ps, ok := c.panes[paneID]; ok {
			ps.blocks = nil
		}
		c.mu.Unlock()
	case actionExit:
		c.mu.Lock()
		c.exited = true
		c.mu.Unlock()
		if c.mc != nil {
			c.mc.MarkExited()
		}
	}
}

// Exited reports whether pacing forced this client to exit.
func (c *Client) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited
}

// Resume clears a paused pane back to PaneOn (spec.md's %continue:
// "resumed by a client command"), wiring the pane's tap back into the
// normal queue-and-deliver path.
func (c *Client) Resume(paneID int) {
	c.SetPaneMode(paneID, PaneOn)
	if wl := c.WriteLine; wl != nil {
		wl(continueLine(paneID))
	}
}
