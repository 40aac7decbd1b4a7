package mux

import (
	"strconv"
	"time"

	"gomux/internal/cmdqueue"
	"gomux/internal/keycode"
	"gomux/internal/keytable"
	"gomux/internal/langparse"
)

// QueueFor returns the queue that owns ownerID: the server-wide queue for
// "", else the per-client queue (spec.md §4.E: "owned either by the
// server ... or by a specific client").
func (s *Server) QueueFor(ownerID string) *cmdqueue.Queue {
	if ownerID == "" {
		return s.Queue
	}
	return s.ClientQueue(ownerID)
}

func (s *Server) clientByID(id string) *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Clients[id]
}

// Submit parses source as one command line (spec.md §4.D grammar: a
// semicolon chain or a single "{ ... }" group) and appends it as a new
// get-command item to the queue owning ownerID, resolving aliases first.
// This is the single path both an interactive client's command prompt and
// keytable.Dispatch's Appender use to turn text into queued work.
func (s *Server) Submit(ownerID, source string, find cmdqueue.FindState, key cmdqueue.KeyEvent) error {
	cl, err := langparse.ParseLine(source)
	if err != nil {
		return err
	}
	expanded, err := langparse.ExpandCommandList(s.Aliases, cl, langparse.AliasFlags{})
	if err != nil {
		return err
	}
	cmds := make([]cmdqueue.Command, 0, len(expanded.Commands))
	for _, c := range expanded.Commands {
		cmds = append(cmds, cmdqueue.Command{Verb: c.Name, Args: c.Args})
	}
	client := s.clientByID(ownerID)
	item := cmdqueue.GetCommand(ownerID, cmds, find, key, 0, s.Exec(client))
	s.QueueFor(ownerID).Append(item)
	return nil
}

// IsMutatingCommand reports whether source's leading verb is absent from
// the small set of commands safe for a read-only client to run (spec.md
// §4.C: "If the client lacks write access, a synthetic error item is
// appended" for anything that is not display-only).
func (s *Server) IsMutatingCommand(source string) bool {
	cl, err := langparse.ParseLine(source)
	if err != nil || len(cl.Commands) == 0 {
		return true
	}
	switch cl.Commands[0].Name {
	case "list-sessions", "list-windows", "list-panes", "show-options", "display-message":
		return false
	default:
		return true
	}
}

// clientAppender adapts Server.Submit to keytable.Appender, bound to one
// client's key dispatch context (spec.md §4.C dispatch).
type clientAppender struct {
	s        *Server
	clientID string
	find     cmdqueue.FindState
	raw      string
}

func (a clientAppender) AppendSource(source string) error {
	return a.s.Submit(a.clientID, source, a.find, cmdqueue.KeyEvent{Valid: true, Raw: a.raw})
}

func (a clientAppender) AppendError(message string) error {
	return a.s.Submit(a.clientID, "display-message "+quoteForShell(message), a.find, cmdqueue.KeyEvent{Valid: true, Raw: a.raw})
}

func quoteForShell(s string) string {
	return `"` + s + `"`
}

// DispatchKey looks code up in client's active key table and, if bound,
// submits the binding's command (spec.md §4.C: "Dispatch resolves key
// against the table and ... appends its command-list"). It reports
// whether a binding fired, so the caller (internal/ipc's input loop) knows
// whether to fall through to writing the raw bytes to the active pane --
// tmux's own rule that only bound keys are intercepted, everything else
// passes through to the child.
//
// After a binding fires on a non-root table (i.e. on the table send-prefix
// switched the client into), the client is bumped back to the root table
// unless the binding is flagged Repeat and still inside repeat-time
// (spec.md: "the repeat flag keeps the table active for repeat-time after
// dispatch").
func (s *Server) DispatchKey(c *Client, code keycode.Code, raw string) bool {
	c.mu.Lock()
	tableName := c.KeyTable
	readOnly := c.ReadOnly
	lastDispatch := c.LastKeyDispatch
	c.mu.Unlock()
	root := s.KeyRegistry.RootName()
	if tableName == "" {
		tableName = root
	}
	table := s.KeyRegistry.GetOrCreate(tableName)
	binding, _ := table.Lookup(code)

	var find cmdqueue.FindState
	sess, win, pane, _ := s.Resolve(cmdqueue.FindState{}, c)
	if sess != nil {
		find.SessionName = sess.Name
	}
	if win != nil {
		find.WindowID = winlinkIndexOfString(sess, win)
	}
	if pane != nil {
		find.PaneID = strconv.Itoa(pane.ID)
	}

	appender := clientAppender{s: s, clientID: c.ID, find: find, raw: raw}
	fired := keytable.Dispatch(table, code, appender, readOnly, s.IsMutatingCommand)
	if !fired {
		return false
	}

	now := time.Now()
	c.mu.Lock()
	c.LastKeyDispatch = now
	if tableName != root {
		repeatTime, _ := s.Options.Get("repeat-time")
		inWindow := binding != nil && binding.Repeat &&
			keytable.RepeatWindow(lastDispatch, time.Duration(repeatTime.Number)*time.Millisecond, now)
		if !inWindow {
			c.KeyTable = root
		}
	}
	c.mu.Unlock()
	return true
}

func winlinkIndexOfString(sess *Session, win *Window) string {
	return strconv.Itoa(winlinkIndexOf(sess, win))
}

func paneIndexInString(win *Window, pane *Pane) string {
	return strconv.Itoa(paneIndexIn(win, pane))
}
