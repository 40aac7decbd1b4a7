package mux

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gomux/internal/cmdqueue"
	"gomux/internal/format"
	"gomux/internal/keycode"
	"gomux/internal/keytable"
	"gomux/internal/langparse"
	"gomux/internal/logging"
	"gomux/internal/options"
	"gomux/internal/paste"
)

// Client is the server-side view of an attached local process (spec.md
// §3 Client): everything the entity graph and command dispatch need to
// know about it. Transport (the socket, the TTY) is owned by
// internal/ipc, which embeds *Client alongside its net.Conn -- the same
// weak-reference split spec.md draws ("client owns a TTY and references
// exactly zero or one session").
type Client struct {
	mu sync.Mutex

	ID      string
	Name    string
	Session *Session // weak: zero or one

	KeyTable string
	ReadOnly bool
	Control  bool // -C
	ControlControl bool // -CC
	Exited   bool
	Suspended bool

	Cols, Rows int

	LastKeyDispatch time.Time // feeds keytable.RepeatWindow

	refcount int

	// Output, if set, is where rendered screen/control-mode bytes are
	// written for this client; ipc/control set it at attach time.
	Output func(data []byte)
	// Print, if set, delivers a cmdq_print/cmdq_error line to the
	// client (spec.md: "prints through the originating client if
	// interactive").
	Print func(isError bool, text string)
	// Prompt, if set, asks the client's front end to begin free-form
	// line entry (spec.md §4.C command-prompt binding); internal/ipc
	// wires this at attach time and calls s.Submit with whatever the
	// user types once they press Enter.
	Prompt func(label string)
	// Menu, if set, asks the client's front end to display a titled,
	// navigable item list (original_source's menu_.rs: a bordered popup
	// of items, separators, and mnemonic keys) and invoke the command
	// source string of whichever item the user picks. A "" item is a
	// separator row, matching menu_.rs's blank-name entries.
	Menu func(title string, items []string)
}

func (c *Client) Ref() { c.mu.Lock(); c.refcount++; c.mu.Unlock() }
func (c *Client) Unref() { c.mu.Lock(); c.refcount--; c.mu.Unlock() }
func (c *Client) Refcount() int { c.mu.Lock(); defer c.mu.Unlock(); return c.refcount }

// SetSize records a client's current TTY geometry (spec.md §4.I resize
// control frames).
func (c *Client) SetSize(cols, rows int) {
	c.mu.Lock()
	c.Cols, c.Rows = cols, rows
	c.mu.Unlock()
}

// IsExited reports whether detach-client (or an equivalent disconnect)
// has marked this client done.
func (c *Client) IsExited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Exited
}

// MarkExited flags a client done, for callers (internal/control's
// pacing, once a client falls too far behind) outside the package that
// must not set the field bare under the client's own lock.
func (c *Client) MarkExited() {
	c.mu.Lock()
	c.Exited = true
	c.mu.Unlock()
}

// Server is the process-wide singleton (spec.md §3 Server).
type Server struct {
	mu sync.Mutex

	SocketPath string
	StartTime  time.Time

	Options *options.Tree
	Env     map[string]string

	Sessions map[string]*Session
	Windows  map[int]*Window
	Panes    map[int]*Pane
	Clients  map[string]*Client

	KeyRegistry *keytable.Registry
	Paste       *paste.Store
	Aliases     langparse.Table

	Queue        *cmdqueue.Queue // server-wide
	ClientQueues map[string]*cmdqueue.Queue

	Logger *logging.Ring

	Jobs map[string]*cmdqueue.Job

	nextWindowID  int
	nextPaneID    int
	nextSessionID int

	HistoryLimit int
}

// NewServer creates a server with its option roots, key-table registry,
// and paste store initialized, but no sessions yet.
func NewServer(socketPath string, logger *logging.Ring) *Server {
	srv := &Server{
		SocketPath:   socketPath,
		StartTime:    time.Now(),
		Options:      options.NewTree(nil, options.ServerTable, options.Aliases),
		Env:          envMap(os.Environ()),
		Sessions:     make(map[string]*Session),
		Windows:      make(map[int]*Window),
		Panes:        make(map[int]*Pane),
		Clients:      make(map[string]*Client),
		KeyRegistry:  keytable.NewRegistry(),
		Paste:        paste.New(50),
		Aliases:      make(langparse.Table),
		ClientQueues: make(map[string]*cmdqueue.Queue),
		Jobs:         make(map[string]*cmdqueue.Job),
		HistoryLimit: 2000,
		Logger:       logger,
	}
	srv.Queue = cmdqueue.New(srv, srv)
	srv.Paste.SetHook(func(event, name string) {
		srv.Logf("paste %s: %s", event, name)
	})
	srv.installDefaultBindings()
	return srv
}

// installDefaultBindings is key-bindings-init (spec.md §4.C): installs the
// static default root/prefix bindings, then snapshots each table's user
// layer into its default layer so a later `reset` restores them.
func (s *Server) installDefaultBindings() {
	root := s.KeyRegistry.GetOrCreate(s.KeyRegistry.RootName())
	for _, db := range keytable.DefaultRootBindings {
		bindDefault(root, db)
	}
	root.SnapshotDefault()

	prefix := s.KeyRegistry.GetOrCreate("prefix")
	for _, db := range keytable.DefaultPrefixBindings {
		bindDefault(prefix, db)
	}
	prefix.SnapshotDefault()
}

func bindDefault(t *keytable.Table, db keytable.DefaultBinding) {
	code, err := keycode.Parse(db.Key)
	if err != nil {
		return
	}
	t.Bind(&keytable.Binding{Key: code, Command: db.Command, Repeat: db.Repeat, Note: db.Note})
}

func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return m
}

// Report implements cmdqueue.Reporter: route to the owning client if
// interactive, matching spec.md's cmdq_error/cmdq_print split.
func (s *Server) Report(ownerID string, isError bool, text string) {
	s.mu.Lock()
	c := s.Clients[ownerID]
	s.mu.Unlock()
	if c != nil && c.Print != nil {
		c.Print(isError, text)
		return
	}
	s.Logf("%s", text)
}

// Logf implements cmdqueue.Logger, the server message ring.
func (s *Server) Logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Infof(format, args...)
	}
}

// ClientQueue returns (creating if absent) the per-client command queue
// for clientID.
func (s *Server) ClientQueue(clientID string) *cmdqueue.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.ClientQueues[clientID]
	if !ok {
		q = cmdqueue.New(s, s)
		s.ClientQueues[clientID] = q
	}
	return q
}

// allocWindowID/allocPaneID/allocSessionID hand out globally unique ids
// for the all-windows/all-panes/sessions indices (spec.md §3: "Windows
// ... keyed by numeric id", "all panes ... keyed by numeric id").
func (s *Server) allocWindowID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWindowID++
	return s.nextWindowID
}

func (s *Server) allocPaneID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPaneID++
	return s.nextPaneID
}

func (s *Server) allocSessionID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSessionID++
	return s.nextSessionID
}

// RegisterClient adds c to the server's client set.
func (s *Server) RegisterClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clients[c.ID] = c
}

// UnregisterClient removes a client once it is unattached and
// zero-reference (spec.md §3 Client: "an unattached, zero-reference
// client is reaped").
func (s *Server) UnregisterClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Clients, id)
	delete(s.ClientQueues, id)
}

// ListClients returns a snapshot of every currently registered client,
// for internal/ipc's periodic render broadcast.
func (s *Server) ListClients() []*Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Client, 0, len(s.Clients))
	for _, c := range s.Clients {
		out = append(out, c)
	}
	return out
}

// ShouldExit reports whether the server should shut down, per spec.md
// §4.I / §5: exit-empty is on, no sessions remain, no clients remain, and
// no jobs are still running.
func (s *Server) ShouldExit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exitEmpty, _ := s.Options.Get("exit-empty")
	if !exitEmpty.Flag {
		return false
	}
	if len(s.Sessions) > 0 || len(s.Clients) > 0 {
		return false
	}
	for _, j := range s.Jobs {
		_ = j
		return false // any still-tracked job blocks exit
	}
	return true
}

// --- Session/window/pane lifecycle -----------------------------------

// CreateSession allocates and registers a new session, with one initial
// window running command (spec.md scenario 1: "new-session -d -s work").
func (s *Server) CreateSession(name, dir, command string, args []string, cols, rows int) (*Session, error) {
	s.mu.Lock()
	if name == "" {
		existing := make([]string, 0, len(s.Sessions))
		for n := range s.Sessions {
			existing = append(existing, n)
		}
		s.mu.Unlock()
		name = defaultSessionName(existing)
	} else {
		s.mu.Unlock()
	}

	s.mu.Lock()
	if _, exists := s.Sessions[name]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: already exists", name)
	}
	s.mu.Unlock()

	sess := NewSession(s.allocSessionID(), name, s.Options, s.Env, dir)
	win, pane, err := s.newWindowWithPane(sess, "", dir, command, args, cols, rows)
	if err != nil {
		return nil, err
	}
	baseIdx, _ := sess.Options.Get("base-index")
	sess.AddWindow(win, int(baseIdxOr(baseIdx.Number)))
	_ = pane

	s.mu.Lock()
	s.Sessions[name] = sess
	s.mu.Unlock()
	return sess, nil
}

func baseIdxOr(n int64) int64 { return n }

func defaultSessionName(existing []string) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%d", i)
		found := false
		for _, e := range existing {
			if e == name {
				found = true
				break
			}
		}
		if !found {
			return name
		}
	}
}

// newWindowWithPane creates a window owning exactly one pane running
// command, registers both in the global indices, and returns them.
func (s *Server) newWindowWithPane(sess *Session, name, dir, command string, args []string, cols, rows int) (*Window, *Pane, error) {
	if name == "" {
		name = deriveWindowName(command, args)
	}
	winID := s.allocWindowID()
	win := NewWindow(winID, name, cols, rows, s.Options)

	paneID := s.allocPaneID()
	pane := NewPane(paneID, winID, cols, rows, s.HistoryLimit, win.Options)
	env := envSlice(sess.Env)
	if err := pane.StartPTY(env, dir, command, args, cols, rows); err != nil {
		return nil, nil, err
	}
	win.AddPane(pane)

	s.mu.Lock()
	s.Windows[winID] = win
	s.Panes[paneID] = pane
	s.mu.Unlock()

	go pane.PipeOutput(nil)
	return win, pane, nil
}

func deriveWindowName(command string, args []string) string {
	if command == "" {
		return "window"
	}
	base := command
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	return base
}

func envSlice(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}

// NewWindow adds a new window with one pane to sess, honoring the
// session's base-index.
func (s *Server) NewWindow(sess *Session, name, dir, command string, args []string) (*Winlink, error) {
	cur := sess.CurrentWinlink()
	cols, rows := 80, 24
	if cur != nil {
		cols, rows = cur.Window.Cols, cur.Window.Rows
	}
	win, _, err := s.newWindowWithPane(sess, name, dir, command, args, cols, rows)
	if err != nil {
		return nil, err
	}
	baseIdx, _ := sess.Options.Get("base-index")
	return sess.AddWindow(win, int(baseIdx.Number)), nil
}

// KillWindow unlinks the winlink at idx from sess and, once no winlink
// anywhere references the window (spec.md invariant #3), destroys its
// panes and prunes the global windows index.
func (s *Server) KillWindow(sess *Session, idx int) error {
	wl, err := sess.RemoveWindow(idx)
	if err != nil {
		return err
	}
	s.maybeDestroyWindow(wl.Window)
	return nil
}

func (s *Server) maybeDestroyWindow(w *Window) {
	if w.winlinkCount() > 0 {
		return
	}
	for _, p := range w.Panes {
		s.destroyPane(p)
	}
	s.mu.Lock()
	delete(s.Windows, w.ID)
	s.mu.Unlock()
}

func (s *Server) destroyPane(p *Pane) {
	p.Close()
	s.mu.Lock()
	delete(s.Panes, p.ID)
	s.mu.Unlock()
}

// KillPane removes a pane from its window, destroying the window too if
// that was its last pane.
func (s *Server) KillPane(paneID int) error {
	s.mu.Lock()
	p, ok := s.Panes[paneID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no such pane: %d", paneID)
	}
	s.mu.Lock()
	w := s.Windows[p.WindowID]
	s.mu.Unlock()
	if w == nil {
		return fmt.Errorf("pane %d: owning window missing", paneID)
	}
	if !w.RemovePane(paneID) {
		return fmt.Errorf("pane %d: not a member of window %d", paneID, w.ID)
	}
	s.destroyPane(p)
	if w.Empty() {
		w.mu.Lock()
		links := make(map[string]int, len(w.winlinks))
		for name, idx := range w.winlinks {
			links[name] = idx
		}
		w.mu.Unlock()
		for name, idx := range links {
			s.mu.Lock()
			sess := s.Sessions[name]
			s.mu.Unlock()
			if sess != nil {
				sess.RemoveWindow(idx)
			}
		}
		s.maybeDestroyWindow(w)
	}
	return nil
}

// AttachClient attaches c to the named session (spec.md §4.I attach: "the
// server replies with a session assignment"), falling back to the most
// recently created session when name is empty and creating one running
// the user's shell when no sessions exist at all. Grounded on
// attachClientToSession, exported for internal/ipc's handshake.
func (s *Server) AttachClient(c *Client, name, dir, shell string) (*Session, error) {
	s.mu.Lock()
	var sess *Session
	if name != "" {
		sess = s.Sessions[name]
	} else {
		for _, cand := range s.Sessions {
			if sess == nil || cand.CreatedAt.After(sess.CreatedAt) {
				sess = cand
			}
		}
	}
	s.mu.Unlock()
	if sess == nil {
		if name != "" {
			return nil, fmt.Errorf("no such session: %s", name)
		}
		var err error
		sess, err = s.CreateSession("", dir, shell, nil, 80, 24)
		if err != nil {
			return nil, err
		}
	}
	attachClientToSession(c, sess)
	return sess, nil
}

// DetachClient unrefs c's attached session (if any) and removes c from
// the server's client set, called by internal/ipc once a connection
// closes (spec.md §3 Client lifecycle: "an unattached, zero-reference
// client is reaped").
func (s *Server) DetachClient(c *Client) {
	if c == nil {
		return
	}
	c.mu.Lock()
	sess := c.Session
	c.Session = nil
	c.mu.Unlock()
	if sess != nil {
		sess.UnrefAttached()
		s.DestroySessionIfUnreferenced(sess)
	}
	s.UnregisterClient(c.ID)
}

// SessionNames lists every live session's name, for internal/ipc's
// list-sessions request and the `gomux ls` CLI.
func (s *Server) SessionNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.Sessions))
	for n := range s.Sessions {
		names = append(names, n)
	}
	return names
}

// AllSessions, AllWindows and AllPanes snapshot the server's live entity
// sets, for internal/control's subscription evaluator (spec.md §4.J:
// subscriptions of type all-panes/all-windows walk every live entity of
// that kind each tick).
func (s *Server) AllSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.Sessions))
	for _, sess := range s.Sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Server) AllWindows() []*Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Window, 0, len(s.Windows))
	for _, w := range s.Windows {
		out = append(out, w)
	}
	return out
}

func (s *Server) AllPanes() []*Pane {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Pane, 0, len(s.Panes))
	for _, p := range s.Panes {
		out = append(out, p)
	}
	return out
}

// SessionOf returns the session that owns win (spec.md: pane->window
// and window->session are weak back-edges elsewhere, but subscription
// evaluation needs the forward lookup to build format.Vars).
func (s *Server) SessionOf(win *Window) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.Sessions {
		for _, wl := range sess.Winlinks {
			if wl.Window == win {
				return sess
			}
		}
	}
	return nil
}

// WindowOf returns the window that owns pane, by scanning the live
// window set (gomux keeps only a weak WindowID back-edge on Pane).
func (s *Server) WindowOf(pane *Pane) *Window {
	s.mu.Lock()
	windows := make([]*Window, 0, len(s.Windows))
	for _, w := range s.Windows {
		windows = append(windows, w)
	}
	s.mu.Unlock()
	for _, w := range windows {
		for _, p := range w.Panes {
			if p == pane {
				return w
			}
		}
	}
	return nil
}

// DestroySessionIfUnreferenced does nothing while the session's refcount
// is non-zero; once it is zero, it unlinks and tears down all its
// windows/panes and removes it from the sessions map. It does not itself
// decrement any reference (spec.md: "exists while reference
// count is non-zero").
func (s *Server) DestroySessionIfUnreferenced(sess *Session) {
	if sess.Refcount() > 0 {
		return
	}
	for _, wl := range sess.Winlinks {
		wl.Window.unlink(sess.Name)
		s.maybeDestroyWindow(wl.Window)
	}
	s.mu.Lock()
	delete(s.Sessions, sess.Name)
	s.mu.Unlock()
}

// --- Targets & formatting ---------------------------------------------

// Resolve finds the session/window/pane a queue item's FindState names,
// falling back to the client's attached session and its current
// window/active pane when a field is empty (spec.md §4.E FindState:
// "target resolution").
func (s *Server) Resolve(find cmdqueue.FindState, client *Client) (*Session, *Window, *Pane, error) {
	s.mu.Lock()
	var sess *Session
	if find.SessionName != "" {
		sess = s.Sessions[find.SessionName]
	} else if client != nil {
		sess = client.Session
	}
	s.mu.Unlock()
	if sess == nil {
		return nil, nil, nil, fmt.Errorf("no current session")
	}

	var win *Window
	if find.WindowID != "" {
		idx, err := parseIndex(find.WindowID)
		if err != nil {
			return nil, nil, nil, err
		}
		wl := sess.WinlinkByIndex(idx)
		if wl == nil {
			return nil, nil, nil, fmt.Errorf("no such window: %s", find.WindowID)
		}
		win = wl.Window
	} else {
		wl := sess.CurrentWinlink()
		if wl == nil {
			return sess, nil, nil, nil
		}
		win = wl.Window
	}

	var pane *Pane
	if find.PaneID != "" {
		pid, err := parseIndex(find.PaneID)
		if err != nil {
			return nil, nil, nil, err
		}
		pane = win.PaneByID(pid)
		if pane == nil {
			return nil, nil, nil, fmt.Errorf("no such pane: %s", find.PaneID)
		}
	} else {
		pane = win.ActivePane()
	}
	return sess, win, pane, nil
}

func parseIndex(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return n, nil
}

// Vars builds the format.Vars context for sess/win/pane (spec.md §4.K),
// used both by status-line rendering and by %if conditions.
func (s *Server) Vars(sess *Session, win *Window, pane *Pane) format.Vars {
	v := format.Vars{}
	if sess != nil {
		v["session_name"] = sess.Name
		v["session_windows"] = fmt.Sprintf("%d", len(sess.Winlinks))
	}
	if win != nil {
		v["window_name"] = win.Name
		v["window_index"] = fmt.Sprintf("%d", winlinkIndexOf(sess, win))
		v["window_panes"] = fmt.Sprintf("%d", len(win.Panes))
	}
	if pane != nil {
		v["pane_index"] = fmt.Sprintf("%d", paneIndexIn(win, pane))
		v["pane_id"] = fmt.Sprintf("%%%d", pane.ID)
		v["pane_title"] = pane.Title
		v["pane_current_path"] = pane.CurrentPath
		v["pane_dead"] = boolFlag(pane.Dead)
	}
	return v
}

func winlinkIndexOf(sess *Session, win *Window) int {
	if sess == nil {
		return 0
	}
	for _, wl := range sess.Winlinks {
		if wl.Window == win {
			return wl.Index
		}
	}
	return 0
}

func paneIndexIn(win *Window, pane *Pane) int {
	if win == nil {
		return 0
	}
	for i, p := range win.Panes {
		if p == pane {
			return i
		}
	}
	return 0
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// EvalCondition implements langparse.Evaluator for top-level (no
// session/window/pane context) %if expressions, e.g. in a config file
// sourced at server start.
func (s *Server) EvalCondition(expr string) (bool, error) {
	return format.EvalCondition(expr, s.Vars(nil, nil, nil))
}
