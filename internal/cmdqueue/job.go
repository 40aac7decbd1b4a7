package cmdqueue

import "sync"

// Job represents an asynchronous background task (a shell command run
// for `run-shell`, a format lookup needing a subprocess, etc.) that a
// command-list item waited on. Exit delivers the result and resumes the
// waiting item.
//
// Ordering invariant (Open Question decision #1, see DESIGN.md): Exit
// calls Queue.Continue(item) BEFORE clearing j.item / releasing any
// state the completion might reference, never after. The teacher's
// shell-out path (internal/bridge "exec.go") always drains a command's
// output before telling anything downstream "done"; gomux's analogue is
// "resume the queue item before the job forgets what it was running",
// since a continue-then-free ordering would leave a resumed item
// observing a freed job for one scheduler tick.
type Job struct {
	mu       sync.Mutex
	item     *Item
	queue    *Queue
	ExitCode int
	Output   string
	done     bool
}

// NewJob creates a job tied to the item it will resume on completion.
// The caller must have already put item into StateWaiting (typically by
// returning Result{Wait: true} from the item's exec/callback).
func NewJob(q *Queue, item *Item) *Job {
	item.Ref()
	return &Job{item: item, queue: q}
}

// Exit records the job's outcome and resumes the waiting item.
func (j *Job) Exit(exitCode int, output string) {
	j.mu.Lock()
	if j.done {
		j.mu.Unlock()
		return
	}
	j.done = true
	j.ExitCode = exitCode
	j.Output = output
	item := j.item
	j.mu.Unlock()

	// Continue before unref: the item must already be runnable again
	// before anything observes its job pointer going away.
	j.queue.Continue(item)
	item.Unref()
}

// Cancel resumes the waiting item without a result, e.g. because the
// owning client detached before the job finished (spec.md does not
// require jobs to be killed on detach for the core scope; it only
// requires the queue not to wedge).
func (j *Job) Cancel() {
	j.Exit(-1, "")
}
