package mux

import (
	"fmt"
	"os/exec"
	"strings"

	"gomux/internal/cmdqueue"
	"gomux/internal/format"
)

// Exec returns a cmdqueue.Exec closure bound to srv, suitable for
// cmdqueue.GetCommand's exec parameter. It is the single entry point the
// command queue calls into for every queued command, dispatching on the
// item's current command verb (spec.md §4.E: "Exec runs one command-list
// entry").
func (s *Server) Exec(client *Client) cmdqueue.Exec {
	return func(item *cmdqueue.Item) cmdqueue.Result {
		cmd := item.Current()
		fn, ok := builtins[cmd.Verb]
		if !ok {
			return cmdqueue.Result{Err: fmt.Errorf("unknown command: %s", cmd.Verb)}
		}
		return fn(s, client, item, cmd.Args)
	}
}

// builtin is one command verb's implementation.
type builtin func(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result

// builtins is the command-verb dispatch table (spec.md §4.D/E builtins,
// generalized from the teacher's fixed message.Request{Type: ...} switch
// in handleAttach to an open, extensible verb table).
var builtins = map[string]builtin{
	"new-session":     cmdNewSession,
	"new-window":      cmdNewWindow,
	"split-window":    cmdSplitWindow,
	"kill-window":     cmdKillWindow,
	"kill-pane":       cmdKillPane,
	"kill-session":    cmdKillSession,
	"kill-server":     cmdKillServer,
	"select-pane":     cmdSelectPane,
	"select-window":   cmdSelectWindow,
	"next-window":     cmdNextWindow,
	"previous-window": cmdPreviousWindow,
	"rename-session":  cmdRenameSession,
	"rename-window":   cmdRenameWindow,
	"set-option":      cmdSetOption,
	"set":             cmdSetOption,
	"show-options":    cmdShowOptions,
	"send-keys":       cmdSendKeys,
	"display-message": cmdDisplayMessage,
	"list-sessions":   cmdListSessions,
	"list-windows":    cmdListWindows,
	"list-panes":      cmdListPanes,
	"set-buffer":      cmdSetBuffer,
	"paste-buffer":    cmdPasteBuffer,
	"run-shell":       cmdRunShell,
	"send-prefix":     cmdSendPrefix,
	"detach-client":   cmdDetachClient,
	"copy-mode":       cmdCopyMode,
	"choose-buffer":   cmdChooseBuffer,
	"confirm-before":  cmdConfirmBefore,
	"command-prompt":  cmdCommandPrompt,
	"display-menu":    cmdDisplayMenu,
}

func cmdNewSession(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	opts := parseFlags(args, map[string]bool{"d": false, "s": true, "n": true, "c": true})
	name := opts["s"]
	dir := opts["c"]
	if dir == "" {
		dir = "."
	}
	command, cmdArgs := shellOf(opts["n"])
	sess, err := s.CreateSession(name, dir, command, cmdArgs, 80, 24)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if c != nil && opts["d"] == "" {
		attachClientToSession(c, sess)
	}
	s.Queue.Print(item, "created session %s", sess.Name)
	return cmdqueue.Result{}
}

func cmdNewWindow(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	opts := parseFlags(args, map[string]bool{"n": true, "c": true})
	dir := opts["c"]
	if dir == "" {
		dir = sess.DefaultWorkingDir
	}
	command, cmdArgs := shellOf("")
	wl, err := s.NewWindow(sess, opts["n"], dir, command, cmdArgs)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	s.Queue.Print(item, "new window %d:%s", wl.Index, wl.Window.Name)
	return cmdqueue.Result{}
}

func cmdSplitWindow(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, win, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if win == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no current window")}
	}
	opts := parseFlags(args, map[string]bool{"h": false, "v": false, "c": true})
	dir := opts["c"]
	if dir == "" && pane != nil {
		dir = pane.CurrentPath
	}
	if dir == "" {
		dir = "."
	}
	if _, ok := opts["h"]; ok {
		win.Layout = LayoutEvenHorizontal
	} else if _, ok := opts["v"]; ok {
		win.Layout = LayoutEvenVertical
	}
	command, cmdArgs := shellOf("")
	paneID := s.allocPaneID()
	newPane := NewPane(paneID, win.ID, win.Cols, win.Rows, s.HistoryLimit, win.Options)
	if err := newPane.StartPTY(envSlice(s.Env), dir, command, cmdArgs, win.Cols, win.Rows); err != nil {
		return cmdqueue.Result{Err: err}
	}
	s.mu.Lock()
	s.Panes[paneID] = newPane
	s.mu.Unlock()
	win.AddPane(newPane)
	win.SetActivePane(newPane.ID)
	go newPane.PipeOutput(nil)
	s.Queue.Print(item, "split pane %%%d", newPane.ID)
	return cmdqueue.Result{}
}

func cmdKillWindow(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, win, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if win == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no current window")}
	}
	idx := winlinkIndexOf(sess, win)
	if err := s.KillWindow(sess, idx); err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{}
}

func cmdKillPane(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, _, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if pane == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no current pane")}
	}
	if err := s.KillPane(pane.ID); err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{}
}

func cmdKillSession(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	for _, wl := range sess.Winlinks {
		for _, p := range wl.Window.Panes {
			s.destroyPane(p)
		}
		wl.Window.unlink(sess.Name)
		s.maybeDestroyWindow(wl.Window)
	}
	sess.Winlinks = nil
	s.mu.Lock()
	delete(s.Sessions, sess.Name)
	s.mu.Unlock()
	return cmdqueue.Result{}
}

func cmdKillServer(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	s.mu.Lock()
	names := make([]string, 0, len(s.Sessions))
	for n := range s.Sessions {
		names = append(names, n)
	}
	s.mu.Unlock()
	for _, n := range names {
		s.mu.Lock()
		sess := s.Sessions[n]
		s.mu.Unlock()
		if sess != nil {
			cmdKillSession(s, c, item, nil)
		}
	}
	return cmdqueue.Result{}
}

func cmdSelectPane(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, win, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if win == nil || len(args) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: select-pane -t pane-id")}
	}
	id, err := parseIndex(strings.TrimPrefix(args[0], "%"))
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if err := win.SetActivePane(id); err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{}
}

func cmdSelectWindow(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if len(args) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: select-window -t index")}
	}
	idx, err := parseIndex(args[0])
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if err := sess.SelectWindow(idx); err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{}
}

func cmdNextWindow(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{Err: sess.NextWindow()}
}

func cmdPreviousWindow(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{Err: sess.PreviousWindow()}
}

func cmdRenameSession(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if len(args) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: rename-session new-name")}
	}
	s.mu.Lock()
	if _, exists := s.Sessions[args[0]]; exists {
		s.mu.Unlock()
		return cmdqueue.Result{Err: fmt.Errorf("session %s: already exists", args[0])}
	}
	delete(s.Sessions, sess.Name)
	sess.Name = args[0]
	s.Sessions[sess.Name] = sess
	s.mu.Unlock()
	return cmdqueue.Result{}
}

func cmdRenameWindow(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, win, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if win == nil || len(args) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: rename-window new-name")}
	}
	win.mu.Lock()
	win.Name = args[0]
	win.mu.Unlock()
	return cmdqueue.Result{}
}

func cmdSetOption(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	known := map[string]bool{"g": false, "s": false, "w": false, "p": false, "a": false}
	opts := parseFlags(args, known)
	positional := positionalArgs(args, known)
	if len(positional) < 2 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: set-option [-gswp] name value")}
	}
	name, value := positional[0], strings.Join(positional[1:], " ")
	sess, win, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	tree := s.Options
	switch {
	case hasFlag(opts, "w") && win != nil:
		tree = win.Options
	case hasFlag(opts, "p") && pane != nil:
		tree = pane.Options
	case hasFlag(opts, "g"):
		tree = s.Options
	case sess != nil:
		tree = sess.Options
	}
	_, doAppend := opts["a"]
	if err := tree.SetString(name, value, doAppend); err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{}
}

func cmdShowOptions(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	tree := s.Options
	if sess != nil {
		tree = sess.Options
	}
	for _, name := range tree.Names() {
		v, _ := tree.Get(name)
		s.Queue.Print(item, "%s %v", name, v)
	}
	return cmdqueue.Result{}
}

func cmdSendKeys(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, _, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if pane == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no current pane")}
	}
	literal := false
	var words []string
	for _, a := range args {
		if a == "-l" {
			literal = true
			continue
		}
		words = append(words, a)
	}
	text := strings.Join(words, " ")
	if !literal {
		text = translateKeyNames(text)
	}
	if _, err := pane.Write([]byte(text)); err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{}
}

func translateKeyNames(s string) string {
	switch s {
	case "Enter":
		return "\r"
	case "Escape":
		return "\x1b"
	case "Tab":
		return "\t"
	case "C-c":
		return "\x03"
	default:
		return s
	}
}

func cmdDisplayMessage(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, win, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	tmplText := strings.Join(args, " ")
	if tmplText == "" {
		tmplText = "#S:#I.#P"
	}
	text := format.Expand(tmplText, s.Vars(sess, win, pane))
	s.Queue.Print(item, "%s", text)
	return cmdqueue.Result{}
}

func cmdListSessions(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, sess := range s.Sessions {
		s.Queue.Print(item, "%s: %d windows", name, len(sess.Winlinks))
	}
	return cmdqueue.Result{}
}

func cmdListWindows(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	sess, _, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	for _, wl := range sess.Winlinks {
		s.Queue.Print(item, "%d: %s (%d panes)", wl.Index, wl.Window.Name, len(wl.Window.Panes))
	}
	return cmdqueue.Result{}
}

func cmdListPanes(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, win, _, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if win == nil {
		return cmdqueue.Result{}
	}
	for i, p := range win.Panes {
		s.Queue.Print(item, "%d: %%%d %s", i, p.ID, p.Title)
	}
	return cmdqueue.Result{}
}

func cmdSetBuffer(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	known := map[string]bool{"b": true}
	opts := parseFlags(args, known)
	positional := positionalArgs(args, known)
	if len(positional) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: set-buffer [-b name] text")}
	}
	data := []byte(strings.Join(positional, " "))
	if name := opts["b"]; name != "" {
		s.Paste.Set(name, data)
		return cmdqueue.Result{}
	}
	s.Paste.Add("buffer", data)
	return cmdqueue.Result{}
}

func cmdPasteBuffer(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, _, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if pane == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no current pane")}
	}
	opts := parseFlags(args, map[string]bool{"b": true})
	var buf = s.Paste.GetTop()
	if name := opts["b"]; name != "" {
		buf = s.Paste.Get(name)
	}
	if buf == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no buffer")}
	}
	_, werr := pane.Write(buf.Data)
	return cmdqueue.Result{Err: werr}
}

// cmdSendPrefix is the root table's default "C-b" binding: it moves the
// dispatching client onto the "prefix" table for its next keystroke
// (spec.md §4.C; defaults grounded on keytable.DefaultRootBindings).
// DispatchKey bumps the client back to root once that next key fires
// unless the binding it hits is flagged Repeat and still inside
// repeat-time.
func cmdSendPrefix(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	if c == nil {
		return cmdqueue.Result{}
	}
	c.mu.Lock()
	c.KeyTable = "prefix"
	c.mu.Unlock()
	return cmdqueue.Result{}
}

// cmdDetachClient marks the client exited; internal/ipc's attach loop
// checks Exited after each dispatch and closes the connection (spec.md §3
// Client lifecycle: "a client detaches").
func cmdDetachClient(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	if c == nil {
		return cmdqueue.Result{Err: fmt.Errorf("detach-client: no client")}
	}
	c.mu.Lock()
	c.Exited = true
	c.mu.Unlock()
	return cmdqueue.Result{}
}

// cmdCopyMode pushes "copy-mode" onto the active pane's mode stack
// (spec.md §3 Pane: "mode stack"). The mode's own scrollback/search UI is
// out of core scope per spec.md §1; gomux tracks only that the pane is in
// the mode. DestroyReady reports this, but kill-pane and kill-window do
// not consult it.
func cmdCopyMode(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, _, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if pane == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no current pane")}
	}
	pane.PushMode("copy-mode")
	return cmdqueue.Result{}
}

// cmdChooseBuffer pushes "buffer-mode" onto the active pane's mode stack,
// grounded on original_source's window_buffer.rs ("window_buffer_mode": a
// mode listing every paste buffer, sortable/filterable/searchable, with
// per-row paste/delete/tag actions). As with copy-mode, the mode's own
// listing/sort/search/tag UI is a client front-end concern out of core
// scope per spec.md §1; gomux validates there is a buffer worth choosing
// from (s.Paste.Walk) and tracks only that the pane entered the mode.
func cmdChooseBuffer(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	_, _, pane, err := s.Resolve(item.Find, c)
	if err != nil {
		return cmdqueue.Result{Err: err}
	}
	if pane == nil {
		return cmdqueue.Result{Err: fmt.Errorf("no current pane")}
	}
	if len(s.Paste.Walk()) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("no buffers")}
	}
	pane.PushMode("buffer-mode")
	return cmdqueue.Result{}
}

// cmdConfirmBefore implements the "-p prompt wrapped-command" form used by
// default bindings like `confirm-before -p "kill-pane #P? (y/n)" kill-pane`.
// Interactive yes/no confirmation is a client front-end concern
// (internal/ipc/internal/control, not yet wired to this builtin), so for
// now confirm-before only runs the wrapped command when invoked with -y
// (a non-interactive override); otherwise it prints the prompt and does
// not run the command, rather than guessing at consent.
func cmdConfirmBefore(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	known := map[string]bool{"p": true, "y": false}
	opts := parseFlags(args, known)
	rest := positionalArgs(args, known)
	if len(rest) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: confirm-before [-y] [-p prompt] command")}
	}
	if _, confirmed := opts["y"]; !confirmed {
		prompt := opts["p"]
		if prompt == "" {
			prompt = "confirm? (y/n)"
		}
		sess, win, pane, _ := s.Resolve(item.Find, c)
		s.Queue.Print(item, "%s (run again with -y to confirm)", format.Expand(prompt, s.Vars(sess, win, pane)))
		return cmdqueue.Result{}
	}
	if err := s.Submit(item.Owner, strings.Join(rest, " "), item.Find, item.Key); err != nil {
		return cmdqueue.Result{Err: err}
	}
	return cmdqueue.Result{}
}

// cmdCommandPrompt triggers the owning client's free-form line entry
// (spec.md §4.C "command-prompt" binding). Reading the typed line and
// submitting it is internal/ipc's job; this builtin only invokes the hook
// internal/ipc installs at attach time.
func cmdCommandPrompt(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	if c == nil || c.Prompt == nil {
		return cmdqueue.Result{Err: fmt.Errorf("command-prompt: client has no interactive front end")}
	}
	label := strings.Join(args, " ")
	if label == "" {
		label = ":"
	}
	c.Prompt(label)
	return cmdqueue.Result{}
}

// cmdDisplayMenu triggers the owning client's popup menu (spec.md §4.J's
// control mode is the only client surface this package owns end to end,
// so gomux delivers the menu as titled items for the client to render
// rather than drawing a terminal overlay itself), grounded on
// original_source's menu_.rs `menu_display`/`menu_add_item`: the first
// positional argument is the title, the rest are item labels in display
// order (an empty label is a menu_.rs-style separator row).
func cmdDisplayMenu(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	if c == nil || c.Menu == nil {
		return cmdqueue.Result{Err: fmt.Errorf("display-menu: client has no interactive front end")}
	}
	if len(args) == 0 {
		return cmdqueue.Result{Err: fmt.Errorf("usage: display-menu title [item ...]")}
	}
	c.Menu(args[0], args[1:])
	return cmdqueue.Result{}
}

func cmdRunShell(s *Server, c *Client, item *cmdqueue.Item, args []string) cmdqueue.Result {
	line := strings.Join(args, " ")
	queue := s.Queue
	if item.Owner != "" {
		queue = s.ClientQueue(item.Owner)
	}
	job := cmdqueue.NewJob(queue, item)
	go func() {
		out, err := runShellLine(line)
		code := 0
		if err != nil {
			code = 1
		}
		job.Exit(code, out)
	}()
	return cmdqueue.Result{Wait: true}
}

// --- small arg/template helpers ---------------------------------------

// parseFlags scans args against known (flag letter -> does it take a
// value) and returns the recognized flags; it is always paired with
// positionalArgs(args, known) so the two agree on what was consumed.
func parseFlags(args []string, known map[string]bool) map[string]string {
	out := make(map[string]string)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) < 2 || a[0] != '-' {
			continue
		}
		name := a[1:2]
		takesValue, isKnown := known[name]
		if !isKnown {
			continue
		}
		if takesValue && i+1 < len(args) {
			out[name] = args[i+1]
			i++
		} else {
			out[name] = "1"
		}
	}
	return out
}

func hasFlag(opts map[string]string, name string) bool {
	_, ok := opts[name]
	return ok
}

// positionalArgs drops every recognized "-x [value]" pair per known,
// leaving the bare trailing words.
func positionalArgs(args []string, known map[string]bool) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) >= 2 && a[0] == '-' {
			if takesValue, isKnown := known[a[1:2]]; isKnown {
				if takesValue {
					i++
				}
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func shellOf(explicit string) (string, []string) {
	if explicit != "" {
		return "/bin/sh", []string{"-c", explicit}
	}
	return "/bin/sh", nil
}

func runShellLine(line string) (string, error) {
	out, err := exec.Command("/bin/sh", "-c", line).CombinedOutput()
	return string(out), err
}

func attachClientToSession(c *Client, sess *Session) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.Session = sess
	c.mu.Unlock()
	sess.mu.Lock()
	sess.AttachedClients++
	sess.mu.Unlock()
}

