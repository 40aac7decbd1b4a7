// Package cmdqueue implements the command queue of spec.md §4.E: a FIFO
// of items owned either by the server or by a specific client, pumped one
// turn at a time until empty or blocked on a WAIT item.
//
// The pump loop is grounded directly on the teacher's
// message.RunDelivery: a select over a stop channel, a notify channel,
// and a fallback ticker, draining items in an inner loop until nothing
// is left to do. gomux generalizes "deliver one message" into "run one
// queue item to completion or WAIT".
package cmdqueue

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// State is an item's lifecycle position.
type State int

const (
	StatePending State = iota
	StateRunning
	StateWaiting
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Flags are per-item queue-state flags (spec.md §4.E).
type Flags uint8

const (
	FlagControl Flags = 1 << iota
	FlagRepeat
	FlagNoHooks
)

// FindState is the target resolution carried on a queue-state: which
// session/window/pane a relative target string ("+1", ".", etc.)
// resolved against at dispatch time. Kept as an opaque blob here since
// internal/mux owns the entity graph this resolves into; cmdqueue only
// needs to carry it through the item's lifetime.
type FindState struct {
	SessionName string
	WindowID    string
	PaneID      string
}

// KeyEvent records the key that triggered this item, if any (spec.md:
// "key-event if the item originated from a key").
type KeyEvent struct {
	Valid bool
	Raw   string
}

// Exec runs one command-list entry and returns its result. Implemented
// by whatever owns the command verb table (internal/mux); cmdqueue only
// knows how to sequence calls to it.
type Exec func(item *Item) Result

// Callback is the function form of a queue item (get-callback).
type Callback func(item *Item) Result

// Result is what running one item produced.
type Result struct {
	// Wait, if true, moves the item to StateWaiting; the caller must
	// later call Queue.Continue(item) to resume.
	Wait bool
	// Err, if non-nil, is reported via cmdq_error semantics and stops
	// the remainder of the item's command-list (but not the queue).
	Err error
}

// Item is one unit of queue work: either a command-list (produced by
// get-command) or a bare callback (get-callback).
type Item struct {
	ID    string
	Owner string // "" for server-owned items, else a client id

	State State
	Flags Flags

	Find FindState
	Key  KeyEvent

	// refcount guards against the item being freed while something
	// else (a job, a timer) still holds a pointer to it across a WAIT.
	refcount int

	commands []Command
	cmdIndex int
	exec     Exec

	callback Callback

	hookDepth int // nesting guard for command hooks, spec.md §4.E
	q         *Queue
}

// Command is one already-resolved command a get-command item will run;
// internal/mux constructs these from an internal/langparse.Command plus
// its resolved FindState.
type Command struct {
	Verb string
	Args []string
}

// Ref/Unref manage the item's reference count (spec.md §4.E "a reference
// count" on queue-state). The queue does not take a reference when an
// item is appended; callers (job watchers, timers) take their own.
func (it *Item) Ref() { it.refcount++ }

func (it *Item) Unref() {
	it.refcount--
}

func (it *Item) Refcount() int { return it.refcount }

// Current returns the command-list entry the item's Exec should run next
// (spec.md §4.E: "Exec runs one command-list entry"). Callers bound as an
// item's Exec use this to see which verb/args to dispatch; it panics if
// called on a callback-only item, which has no command list.
func (it *Item) Current() Command {
	return it.commands[it.cmdIndex]
}

// Queue is a FIFO of items belonging to one owner scope (the server-wide
// queue, or one per attached client — spec.md: "owned either by the
// server ... or by a specific client").
type Queue struct {
	mu     sync.Mutex
	items  []*Item
	notify chan struct{}

	// reporter delivers cmdq_error/cmdq_print output; nil means drop to
	// the server message ring via Logger.
	reporter Reporter
	logger   Logger
}

// Reporter is implemented by whatever can show output to the client
// that owns an interactive item (spec.md: "prints through the
// originating client if interactive").
type Reporter interface {
	Report(ownerID string, isError bool, text string)
}

// Logger is the fallback sink for non-interactive items (spec.md: "or
// logs to the server message ring otherwise").
type Logger interface {
	Logf(format string, args ...any)
}

// New creates an empty queue. reporter/logger may be nil; a nil reporter
// always falls through to logger for every item regardless of Owner.
func New(reporter Reporter, logger Logger) *Queue {
	return &Queue{
		notify:   make(chan struct{}, 1),
		reporter: reporter,
		logger:   logger,
	}
}

// Notify returns the channel a pump select()s on; it is signalled
// (non-blocking) whenever an item is appended or continued.
func (q *Queue) Notify() <-chan struct{} { return q.notify }

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// GetCommand constructs an item that will iterate a command-list
// (spec.md: "get-command(cmdlist, state) constructs an item that will
// iterate a command-list").
func GetCommand(owner string, cmds []Command, find FindState, key KeyEvent, flags Flags, exec Exec) *Item {
	return &Item{
		ID:       uuid.New().String(),
		Owner:    owner,
		State:    StatePending,
		Flags:    flags,
		Find:     find,
		Key:      key,
		commands: cmds,
		exec:     exec,
	}
}

// GetCallback constructs an item that simply invokes fn (spec.md:
// "get-callback(fn, data) constructs an item that simply invokes a
// function"); data is whatever fn closes over.
func GetCallback(owner string, fn Callback) *Item {
	return &Item{
		ID:       uuid.New().String(),
		Owner:    owner,
		State:    StatePending,
		callback: fn,
	}
}

// Append adds item to the tail of the queue (spec.md: "append(client,
// item)").
func (q *Queue) Append(item *Item) {
	q.mu.Lock()
	item.q = q
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.wake()
}

// InsertAfter splices newitem immediately after item (spec.md:
// "insert-after(item, newitem)"), used by command hooks that must run
// before the rest of the original list continues.
func (q *Queue) InsertAfter(item, newitem *Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	newitem.q = q
	for i, it := range q.items {
		if it == item {
			q.items = append(q.items[:i+1], append([]*Item{newitem}, q.items[i+1:]...)...)
			return nil
		}
	}
	return fmt.Errorf("cmdqueue: insert-after: item %s not found in queue", item.ID)
}

// Continue marks item waiting->running so the next pump turn resumes it
// (spec.md: "continue(item) marks waiting->running for the next turn").
// Per the job-completion ordering decision, callers that free external
// state tied to item (e.g. a job's exit-status slot) must call Continue
// strictly before releasing that state, since Continue may synchronously
// re-enter exec on the next Next() call from another goroutine's select.
func (q *Queue) Continue(item *Item) {
	q.mu.Lock()
	if item.State == StateWaiting {
		item.State = StateRunning
	}
	q.mu.Unlock()
	q.wake()
}

// Error reports an error against item, per spec.md cmdq_error: through
// the originating client if interactive, else to the server log.
func (q *Queue) Error(item *Item, format string, args ...any) {
	q.report(item, true, fmt.Sprintf(format, args...))
}

// Print is the non-error equivalent of Error (spec.md cmdq_print).
func (q *Queue) Print(item *Item, format string, args ...any) {
	q.report(item, false, fmt.Sprintf(format, args...))
}

func (q *Queue) report(item *Item, isError bool, text string) {
	if q.reporter != nil && item.Owner != "" {
		q.reporter.Report(item.Owner, isError, text)
		return
	}
	if q.logger != nil {
		prefix := "info"
		if isError {
			prefix = "error"
		}
		q.logger.Logf("cmdq[%s] %s: %s", item.ID, prefix, text)
	}
}

// Next is the pump: it runs items from the head of the queue until
// either the queue is empty or the head item reaches StateWaiting. It
// returns the number of items dispatched this turn, so an outer
// scheduling loop can detect whether progress was made (spec.md:
// "returns the number of items dispatched this turn so the outer loop
// can detect progress").
func (q *Queue) Next(client string) int {
	dispatched := 0
	for {
		item := q.popRunnable(client)
		if item == nil {
			return dispatched
		}
		q.runItem(item)
		dispatched++
		if item.State == StateWaiting {
			return dispatched
		}
	}
}

// popRunnable removes and returns the head item for client's scope if it
// is ready to run (Pending or Running), else returns nil without
// mutating the queue (a Waiting head blocks the whole scope, per
// spec.md's "runs until empty or it hits a waiting item").
func (q *Queue) popRunnable(client string) *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.Owner != client {
			continue
		}
		if it.State == StateWaiting {
			return nil
		}
		if it.State == StateDone {
			continue
		}
		q.items = append(q.items[:i:i], q.items[i+1:]...)
		return it
	}
	return nil
}

func (q *Queue) runItem(item *Item) {
	item.State = StateRunning

	if item.callback != nil {
		res := item.callback(item)
		q.applyResult(item, res)
		return
	}

	for item.cmdIndex < len(item.commands) {
		if item.exec == nil {
			break
		}
		res := item.exec(item)
		if res.Err != nil {
			q.Error(item, "%v", res.Err)
			item.State = StateDone
			return
		}
		item.cmdIndex++
		if res.Wait {
			item.State = StateWaiting
			q.requeue(item)
			return
		}
	}
	item.State = StateDone
}

func (q *Queue) applyResult(item *Item, res Result) {
	if res.Err != nil {
		q.Error(item, "%v", res.Err)
		item.State = StateDone
		return
	}
	if res.Wait {
		item.State = StateWaiting
		q.requeue(item)
		return
	}
	item.State = StateDone
}

// requeue puts a waiting item back at the head of its scope so that,
// once Continue flips it to Running, the next Next() call picks it up
// before any later-appended items.
func (q *Queue) requeue(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]*Item{item}, q.items...)
}

// Len reports how many items (of any state) remain queued, for tests
// and diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
