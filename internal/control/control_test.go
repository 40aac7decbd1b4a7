package control

import (
	"strings"
	"testing"
	"time"

	"gomux/internal/cmdqueue"
	"gomux/internal/mux"
	"gomux/internal/options"
)

func newTestServer(t *testing.T) *mux.Server {
	t.Helper()
	return mux.NewServer("/tmp/gomux-control-test.sock", nil)
}

func newTestPane(id int) *mux.Pane {
	opts := options.NewTree(nil, options.PaneTable, options.Aliases)
	return mux.NewPane(id, 1, 80, 24, 100, opts)
}

func TestEscapeOutputEscapesControlAndBackslash(t *testing.T) {
	got := EscapeOutput([]byte("a\x07b\\c"))
	want := `a\007b\134c`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEscapeOutputPassesPrintableBytesVerbatim(t *testing.T) {
	got := EscapeOutput([]byte("hello world"))
	if got != "hello world" {
		t.Fatalf("expected verbatim passthrough, got %q", got)
	}
}

func TestBudgetClampsToMinimum(t *testing.T) {
	srv := newTestServer(t)
	cl := &mux.Client{ID: "c1"}
	cc := New(srv, cl)
	cc.HighWatermark = 100
	cc.WriteMinimum = 10
	pane := newTestPane(1)
	cc.Watch(pane)

	cc.onPaneData(pane.ID, make([]byte, 10000)) // pending far exceeds high-watermark
	if got := cc.budget(1); got != cc.WriteMinimum {
		t.Fatalf("expected budget clamped to minimum %d, got %d", cc.WriteMinimum, got)
	}
}

func TestFlushDeliversWithinBudgetAndCarriesRemainder(t *testing.T) {
	srv := newTestServer(t)
	cl := &mux.Client{ID: "c1"}
	cc := New(srv, cl)
	cc.HighWatermark = 8192
	cc.WriteMinimum = 32
	pane := newTestPane(1)
	cc.Watch(pane)

	var lines []string
	cc.WriteLine = func(line string) { lines = append(lines, line) }

	cc.onPaneData(pane.ID, []byte(strings.Repeat("x", 8000)))
	cc.Flush(time.Now())
	if len(lines) == 0 {
		t.Fatalf("expected at least one %%output line from first flush")
	}
	if !strings.HasPrefix(lines[0], "%output %1 ") {
		t.Fatalf("expected a %%output line for pane 1, got %q", lines[0])
	}

	cc.mu.Lock()
	remaining := len(cc.pendingIDs)
	cc.mu.Unlock()
	if remaining == 0 {
		t.Fatalf("expected the 8000-byte burst to span more than one pacing turn")
	}

	for i := 0; i < 20 && remaining > 0; i++ {
		cc.Flush(time.Now())
		cc.mu.Lock()
		remaining = len(cc.pendingIDs)
		cc.mu.Unlock()
	}
	if remaining != 0 {
		t.Fatalf("expected pane to drain fully after repeated flushes, %d still pending", remaining)
	}
}

func TestPaneOffModeChargesWithoutSending(t *testing.T) {
	srv := newTestServer(t)
	cl := &mux.Client{ID: "c1"}
	cc := New(srv, cl)
	pane := newTestPane(1)
	cc.Watch(pane)
	cc.SetPaneMode(pane.ID, PaneOff)

	sent := false
	cc.WriteLine = func(string) { sent = true }

	cc.onPaneData(pane.ID, []byte("hello"))
	cc.Flush(time.Now())
	if sent {
		t.Fatalf("expected no output line while pane mode is off")
	}
	cc.mu.Lock()
	ps := cc.panes[pane.ID]
	cc.mu.Unlock()
	if ps.pendingBytes() != 0 {
		t.Fatalf("expected off-mode data charged as consumed, got %d pending bytes", ps.pendingBytes())
	}
}

func TestTooFarBehindWithoutPauseAfterExitsClient(t *testing.T) {
	srv := newTestServer(t)
	cl := &mux.Client{ID: "c1"}
	cc := New(srv, cl)
	cc.PauseAfter = false
	pane := newTestPane(1)
	cc.Watch(pane)

	cc.mu.Lock()
	cc.panes[pane.ID].blocks = []block{{data: []byte("stale"), age: time.Now().Add(-10 * time.Minute)}}
	cc.panes[pane.ID].queued = 5
	cc.pendingIDs = []int{pane.ID}
	cc.mu.Unlock()

	cc.Flush(time.Now())
	if !cc.Exited() {
		t.Fatalf("expected a too-far-behind pane with no pause-after to exit the client")
	}
	if !cl.IsExited() {
		t.Fatalf("expected the underlying mux.Client to be marked exited")
	}
}

func TestTooFarBehindWithPauseAfterPausesPane(t *testing.T) {
	srv := newTestServer(t)
	cl := &mux.Client{ID: "c1"}
	cc := New(srv, cl)
	cc.PauseAfter = true
	cc.PauseAge = time.Second
	pane := newTestPane(1)
	cc.Watch(pane)

	var lines []string
	cc.WriteLine = func(line string) { lines = append(lines, line) }

	cc.mu.Lock()
	cc.panes[pane.ID].blocks = []block{{data: []byte("stale"), age: time.Now().Add(-10 * time.Second)}}
	cc.panes[pane.ID].queued = 5
	cc.pendingIDs = []int{pane.ID}
	c := cc.panes[pane.ID]
	c.mode = PaneOn
	cc.mu.Unlock()

	cc.Flush(time.Now())
	if cc.Exited() {
		t.Fatalf("expected pause, not client exit")
	}
	cc.mu.Lock()
	mode := cc.panes[pane.ID].mode
	cc.mu.Unlock()
	if mode != PanePaused {
		t.Fatalf("expected pane mode PanePaused, got %v", mode)
	}
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "%pause %1") {
		t.Fatalf("expected one %%pause line, got %v", lines)
	}
}

func TestRunCommandEmitsBeginEndFrame(t *testing.T) {
	srv := newTestServer(t)
	if _, err := srv.CreateSession("work", "/tmp", "/bin/cat", nil, 80, 24); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	cl := &mux.Client{ID: "ctl1"}
	cc := New(srv, cl)

	var lines []string
	cc.WriteLine = func(line string) { lines = append(lines, line) }

	cc.RunCommand("list-sessions", cmdqueue.FindState{SessionName: "work"})
	srv.ClientQueue(cl.ID).Next(cl.ID)

	if len(lines) < 2 {
		t.Fatalf("expected at least a %%begin and %%end line, got %v", lines)
	}
	if !strings.HasPrefix(lines[0], "%begin ") {
		t.Fatalf("expected first line to be %%begin, got %q", lines[0])
	}
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "%end ") {
		t.Fatalf("expected last line to be %%end, got %q", last)
	}
}

func TestRunCommandParseErrorEmitsErrorFrame(t *testing.T) {
	srv := newTestServer(t)
	cl := &mux.Client{ID: "ctl1"}
	cc := New(srv, cl)

	var lines []string
	cc.WriteLine = func(line string) { lines = append(lines, line) }

	cc.RunCommand("{ unterminated", cmdqueue.FindState{})
	srv.ClientQueue(cl.ID).Next(cl.ID)

	if len(lines) == 0 || !strings.HasPrefix(lines[len(lines)-1], "%error ") {
		t.Fatalf("expected a trailing %%error line, got %v", lines)
	}
}

func TestSubscribeEmitsOnlyOnChange(t *testing.T) {
	srv := newTestServer(t)
	sess, err := srv.CreateSession("work", "/tmp", "/bin/cat", nil, 80, 24)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	cl := &mux.Client{ID: "ctl1"}
	cc := New(srv, cl)

	var lines []string
	cc.WriteLine = func(line string) { lines = append(lines, line) }

	cc.Subscribe("sess-name", SubSession, "#{session_name}", sess.Name, 0, 0)
	cc.EvaluateSubscriptions(time.Now())
	if len(lines) != 1 {
		t.Fatalf("expected one %%subscription-changed line on first evaluation, got %v", lines)
	}
	cc.EvaluateSubscriptions(time.Now())
	if len(lines) != 1 {
		t.Fatalf("expected no further lines once the value is unchanged, got %v", lines)
	}
}
