package mux

import (
	"testing"
	"time"

	"gomux/internal/cmdqueue"
	"gomux/internal/options"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer("/tmp/gomux-test.sock", nil)
}

func TestWindowAddRemovePaneActiveInvariant(t *testing.T) {
	win := NewWindow(1, "win", 80, 24, options.NewTree(nil, options.ServerTable, options.Aliases))
	p1 := NewPane(1, win.ID, 80, 24, 100, win.Options)
	p2 := NewPane(2, win.ID, 80, 24, 100, win.Options)
	win.AddPane(p1)
	win.AddPane(p2)

	if win.ActivePane().ID != p1.ID {
		t.Fatalf("expected first pane active, got %d", win.ActivePane().ID)
	}
	if err := win.SetActivePane(p2.ID); err != nil {
		t.Fatalf("SetActivePane: %v", err)
	}
	if win.ActivePane().ID != p2.ID {
		t.Fatalf("expected pane 2 active")
	}
	if !win.RemovePane(p2.ID) {
		t.Fatalf("expected RemovePane to succeed")
	}
	if win.ActivePane().ID != p1.ID {
		t.Fatalf("expected active pane to fall back to remaining pane")
	}
	if win.RemovePane(99) {
		t.Fatalf("expected RemovePane of unknown id to fail")
	}
}

func TestWindowRelayoutEvenHorizontal(t *testing.T) {
	win := NewWindow(1, "win", 81, 24, options.NewTree(nil, options.ServerTable, options.Aliases))
	win.Layout = LayoutEvenHorizontal
	for i := 1; i <= 3; i++ {
		win.AddPane(NewPane(i, win.ID, 0, 0, 100, win.Options))
	}
	total := 0
	for _, p := range win.Panes {
		total += p.Screen.Grid.Cols
	}
	if total != 81 {
		t.Fatalf("expected panes to partition full width 81, got %d", total)
	}
}

func TestSessionWinlinkLifecycleAndRefcount(t *testing.T) {
	sess := NewSession(1, "work", options.NewTree(nil, options.ServerTable, options.Aliases), nil, "/tmp")
	win1 := NewWindow(1, "a", 80, 24, sess.Options)
	win2 := NewWindow(2, "b", 80, 24, sess.Options)

	wl1 := sess.AddWindow(win1, 0)
	wl2 := sess.AddWindow(win2, 0)
	if wl1.Index != 0 || wl2.Index != 1 {
		t.Fatalf("expected sequential indices, got %d %d", wl1.Index, wl2.Index)
	}
	if sess.CurrentWinlink().Window != win1 {
		t.Fatalf("expected first window to become current")
	}

	if err := sess.NextWindow(); err != nil || sess.CurrentWinlink().Window != win2 {
		t.Fatalf("NextWindow did not advance to window 2")
	}
	if err := sess.PreviousWindow(); err != nil || sess.CurrentWinlink().Window != win1 {
		t.Fatalf("PreviousWindow did not return to window 1")
	}

	removed, err := sess.RemoveWindow(0)
	if err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	if removed.Window != win1 {
		t.Fatalf("expected removed winlink to wrap window 1")
	}
	if win1.winlinkCount() != 0 {
		t.Fatalf("expected window 1 to have no winlinks left")
	}

	sess.Ref()
	if sess.Refcount() != 1 {
		t.Fatalf("expected refcount 1 after Ref, got %d", sess.Refcount())
	}
	sess.Unref()
	if sess.Refcount() != 0 {
		t.Fatalf("expected refcount 0 after Unref, got %d", sess.Refcount())
	}
}

func TestServerResolveFallsBackToClientSession(t *testing.T) {
	srv := newTestServer(t)
	sess := NewSession(srv.allocSessionID(), "work", srv.Options, srv.Env, "/tmp")
	win := NewWindow(srv.allocWindowID(), "w", 80, 24, sess.Options)
	pane := NewPane(srv.allocPaneID(), win.ID, 80, 24, 100, win.Options)
	win.AddPane(pane)
	sess.AddWindow(win, 0)
	srv.mu.Lock()
	srv.Sessions[sess.Name] = sess
	srv.Windows[win.ID] = win
	srv.Panes[pane.ID] = pane
	srv.mu.Unlock()

	client := &Client{ID: "c1", Session: sess}
	gotSess, gotWin, gotPane, err := srv.Resolve(cmdqueue.FindState{}, client)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotSess != sess || gotWin != win || gotPane != pane {
		t.Fatalf("Resolve did not fall back to client's attached session/current window/active pane")
	}

	_, _, _, err = srv.Resolve(cmdqueue.FindState{}, nil)
	if err == nil {
		t.Fatalf("expected error resolving with no client and no explicit session")
	}
}

func TestChooseBufferRequiresABufferAndPushesMode(t *testing.T) {
	srv := newTestServer(t)
	sess := NewSession(srv.allocSessionID(), "work", srv.Options, srv.Env, "/tmp")
	win := NewWindow(srv.allocWindowID(), "w", 80, 24, sess.Options)
	pane := NewPane(srv.allocPaneID(), win.ID, 80, 24, 100, win.Options)
	win.AddPane(pane)
	sess.AddWindow(win, 0)
	srv.mu.Lock()
	srv.Sessions[sess.Name] = sess
	srv.Windows[win.ID] = win
	srv.Panes[pane.ID] = pane
	srv.mu.Unlock()

	client := &Client{ID: "c1", Session: sess}
	item := &cmdqueue.Item{}
	if res := cmdChooseBuffer(srv, client, item, nil); res.Err == nil {
		t.Fatalf("expected choose-buffer to fail with no buffers")
	}

	srv.Paste.Add("buffer", []byte("hello"))
	if res := cmdChooseBuffer(srv, client, item, nil); res.Err != nil {
		t.Fatalf("choose-buffer: %v", res.Err)
	}
	if len(pane.Modes) != 1 || pane.Modes[0] != "buffer-mode" {
		t.Fatalf("expected pane to enter buffer-mode, got %v", pane.Modes)
	}
}

func TestDisplayMenuInvokesClientHookWithTitleAndItems(t *testing.T) {
	srv := newTestServer(t)
	item := &cmdqueue.Item{}

	if res := cmdDisplayMenu(srv, nil, item, []string{"t"}); res.Err == nil {
		t.Fatalf("expected error with no client front end")
	}

	var gotTitle string
	var gotItems []string
	client := &Client{ID: "c1", Menu: func(title string, items []string) {
		gotTitle = title
		gotItems = items
	}}
	if res := cmdDisplayMenu(srv, client, item, nil); res.Err == nil {
		t.Fatalf("expected error with no arguments")
	}
	if res := cmdDisplayMenu(srv, client, item, []string{"Buffers", "Paste", "", "Cancel"}); res.Err != nil {
		t.Fatalf("display-menu: %v", res.Err)
	}
	if gotTitle != "Buffers" {
		t.Fatalf("expected title %q, got %q", "Buffers", gotTitle)
	}
	if len(gotItems) != 3 || gotItems[0] != "Paste" || gotItems[1] != "" || gotItems[2] != "Cancel" {
		t.Fatalf("unexpected items: %v", gotItems)
	}
}

func TestApplyAutomaticRenameTracksPaneTitle(t *testing.T) {
	win := NewWindow(1, "win", 80, 24, options.NewTree(nil, options.ServerTable, options.Aliases))
	pane := NewPane(1, win.ID, 80, 24, 100, win.Options)
	win.AddPane(pane)

	pane.mu.Lock()
	pane.Title = "vim"
	pane.mu.Unlock()

	srv := newTestServer(t)
	srv.ApplyAutomaticRename(win)
	if win.Name != "vim" {
		t.Fatalf("expected automatic-rename to adopt pane title, got %q", win.Name)
	}
}

func TestApplyAutomaticRenameNoopWhenOptionOff(t *testing.T) {
	win := NewWindow(1, "win", 80, 24, options.NewTree(nil, options.ServerTable, options.Aliases))
	win.Options.SetString("automatic-rename", "off", false)
	pane := NewPane(1, win.ID, 80, 24, 100, win.Options)
	win.AddPane(pane)
	pane.mu.Lock()
	pane.Title = "vim"
	pane.mu.Unlock()

	srv := newTestServer(t)
	srv.ApplyAutomaticRename(win)
	if win.Name != "win" {
		t.Fatalf("expected name unchanged with automatic-rename off, got %q", win.Name)
	}
}

func TestPaneDestroyReadyRequiresClearedModes(t *testing.T) {
	win := NewWindow(1, "win", 80, 24, options.NewTree(nil, options.ServerTable, options.Aliases))
	pane := NewPane(1, win.ID, 80, 24, 100, win.Options)
	pane.Dead = true
	pane.PushMode("copy-mode")
	if pane.DestroyReady() {
		t.Fatalf("expected DestroyReady false while a mode is pushed")
	}
	pane.PopMode()
	if !pane.DestroyReady() {
		t.Fatalf("expected DestroyReady true once modes are cleared and pane is dead")
	}
}

func TestPaneIsIdle(t *testing.T) {
	win := NewWindow(1, "win", 80, 24, options.NewTree(nil, options.ServerTable, options.Aliases))
	pane := NewPane(1, win.ID, 80, 24, 100, win.Options)
	if pane.IsIdle(time.Second) {
		t.Fatalf("expected fresh pane with no output to not report idle")
	}
	pane.mu.Lock()
	pane.lastOutput = time.Now().Add(-10 * time.Second)
	pane.mu.Unlock()
	if !pane.IsIdle(time.Second) {
		t.Fatalf("expected pane with stale output to report idle")
	}
}

func TestParseFlagsAndPositionalArgsAgree(t *testing.T) {
	known := map[string]bool{"g": false, "w": false, "a": false}
	args := []string{"-w", "mode-keys", "vi"}
	flags := parseFlags(args, known)
	if _, ok := flags["w"]; !ok {
		t.Fatalf("expected -w recognized as a boolean flag")
	}
	positional := positionalArgs(args, known)
	if len(positional) != 2 || positional[0] != "mode-keys" || positional[1] != "vi" {
		t.Fatalf("expected positional args [mode-keys vi], got %v", positional)
	}
}

func TestDefaultSessionNameSkipsTakenNames(t *testing.T) {
	srv := newTestServer(t)
	srv.Sessions["0"] = NewSession(srv.allocSessionID(), "0", srv.Options, srv.Env, "/tmp")
	name := defaultSessionName([]string{"0"})
	if name != "1" {
		t.Fatalf("expected next free numeric name '1', got %q", name)
	}
}

func TestAttachClientToNamedSessionFailsWhenMissing(t *testing.T) {
	srv := newTestServer(t)
	cl := &Client{ID: "c1"}
	if _, err := srv.AttachClient(cl, "nope", "/tmp", "/bin/sh"); err == nil {
		t.Fatalf("expected error attaching to a nonexistent named session")
	}
}

func TestAttachClientFallsBackToMostRecentSession(t *testing.T) {
	srv := newTestServer(t)
	sess := NewSession(srv.allocSessionID(), "work", srv.Options, srv.Env, "/tmp")
	srv.Sessions[sess.Name] = sess

	cl := &Client{ID: "c1"}
	got, err := srv.AttachClient(cl, "", "/tmp", "/bin/sh")
	if err != nil {
		t.Fatalf("AttachClient: %v", err)
	}
	if got != sess || cl.Session != sess {
		t.Fatalf("expected client attached to the only existing session")
	}
	if sess.AttachedClients != 1 {
		t.Fatalf("expected AttachedClients 1, got %d", sess.AttachedClients)
	}
}

func TestDetachClientUnrefsAndDestroysUnreferencedSession(t *testing.T) {
	srv := newTestServer(t)
	sess := NewSession(srv.allocSessionID(), "work", srv.Options, srv.Env, "/tmp")
	srv.Sessions[sess.Name] = sess

	cl := &Client{ID: "c1"}
	if _, err := srv.AttachClient(cl, "work", "/tmp", "/bin/sh"); err != nil {
		t.Fatalf("AttachClient: %v", err)
	}
	srv.RegisterClient(cl)

	srv.DetachClient(cl)
	if cl.Session != nil {
		t.Fatalf("expected client's session reference cleared after detach")
	}
	if _, ok := srv.Sessions["work"]; ok {
		t.Fatalf("expected unreferenced session to be destroyed on detach")
	}
	if len(srv.Clients) != 0 {
		t.Fatalf("expected client removed from server's client set")
	}
}

func TestListClientsAndSessionNames(t *testing.T) {
	srv := newTestServer(t)
	srv.Sessions["a"] = NewSession(srv.allocSessionID(), "a", srv.Options, srv.Env, "/tmp")
	srv.Sessions["b"] = NewSession(srv.allocSessionID(), "b", srv.Options, srv.Env, "/tmp")
	srv.RegisterClient(&Client{ID: "c1"})
	srv.RegisterClient(&Client{ID: "c2"})

	if got := len(srv.ListClients()); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}
	names := srv.SessionNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 session names, got %v", names)
	}
}

func TestClientSetSizeAndIsExited(t *testing.T) {
	cl := &Client{ID: "c1"}
	cl.SetSize(100, 40)
	if cl.Cols != 100 || cl.Rows != 40 {
		t.Fatalf("expected size 100x40, got %dx%d", cl.Cols, cl.Rows)
	}
	if cl.IsExited() {
		t.Fatalf("expected new client to not be exited")
	}
	cl.Exited = true
	if !cl.IsExited() {
		t.Fatalf("expected IsExited to report true once Exited is set")
	}
}
