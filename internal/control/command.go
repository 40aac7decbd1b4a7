package control

import (
	"sync"
	"time"

	"gomux/internal/cmdqueue"
)

// commandRun tracks whether any line reported while one RunCommand's
// command item executed was an error, so its closing marker can choose
// %end vs %error.
type commandRun struct {
	mu     sync.Mutex
	failed bool
}

// installPrintHook wires the underlying mux.Client's Print callback,
// once, to route every cmdq_print/cmdq_error line to whichever
// RunCommand call is currently between its %begin and %end/%error
// markers. Queue items for one owner run strictly FIFO (internal/
// cmdqueue.Queue), so at most one run is ever "current" at a time.
func (c *Client) installPrintHook() {
	c.mc.Print = func(isError bool, text string) {
		c.mu.Lock()
		run := c.currentRun
		c.mu.Unlock()
		if run != nil && isError {
			run.mu.Lock()
			run.failed = true
			run.mu.Unlock()
		}
		c.emit(text)
	}
}

// RunCommand submits line as a queued command for this client's owner
// scope, wrapping its eventual output in spec.md §6's "%begin <t> <num>
// <flags> / %end <t> <num> <flags>" frame (or %error in place of %end if
// anything the command ran reported an error). There is no single
// teacher or pack source for control mode's command framing; this
// brackets a command-list item between two callback items on the same
// per-client queue, relying on cmdqueue.Queue's documented per-owner
// FIFO ordering to keep %begin/output/%end (or %error) contiguous.
func (c *Client) RunCommand(line string, find cmdqueue.FindState) {
	q := c.srv.QueueFor(c.ID)
	t := time.Now().Unix()

	c.mu.Lock()
	c.cmdSeq++
	num := c.cmdSeq
	run := &commandRun{}
	c.mu.Unlock()

	q.Append(cmdqueue.GetCallback(c.ID, func(*cmdqueue.Item) cmdqueue.Result {
		c.mu.Lock()
		c.currentRun = run
		c.mu.Unlock()
		c.emit(beginLine(t, num, 0))
		return cmdqueue.Result{}
	}))

	if err := c.srv.Submit(c.ID, line, find, cmdqueue.KeyEvent{}); err != nil {
		parseErr := err
		q.Append(cmdqueue.GetCallback(c.ID, func(*cmdqueue.Item) cmdqueue.Result {
			run.mu.Lock()
			run.failed = true
			run.mu.Unlock()
			c.emit(parseErr.Error())
			return cmdqueue.Result{}
		}))
	}

	q.Append(cmdqueue.GetCallback(c.ID, func(*cmdqueue.Item) cmdqueue.Result {
		run.mu.Lock()
		failed := run.failed
		run.mu.Unlock()
		if failed {
			c.emit(errorLine(t, num, 0))
		} else {
			c.emit(endLine(t, num, 0))
		}
		c.mu.Lock()
		if c.currentRun == run {
			c.currentRun = nil
		}
		c.mu.Unlock()
		return cmdqueue.Result{}
	}))
}

func (c *Client) emit(line string) {
	if wl := c.WriteLine; wl != nil {
		wl(line)
	}
}
