package keytable

import (
	"testing"
	"time"

	"gomux/internal/keycode"
)

type fakeAppender struct {
	sources []string
	errors  []string
}

func (f *fakeAppender) AppendSource(s string) error { f.sources = append(f.sources, s); return nil }
func (f *fakeAppender) AppendError(m string) error   { f.errors = append(f.errors, m); return nil }

func TestBindLookupDispatch(t *testing.T) {
	tbl := New("root")
	key, err := keycode.Parse("C-b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tbl.Bind(&Binding{Key: key, Command: "send-prefix"})

	a := &fakeAppender{}
	if !Dispatch(tbl, key, a, false, nil) {
		t.Fatal("expected binding to be found")
	}
	if len(a.sources) != 1 || a.sources[0] != "send-prefix" {
		t.Fatalf("unexpected appended sources: %v", a.sources)
	}
}

func TestDispatchUnbound(t *testing.T) {
	tbl := New("root")
	a := &fakeAppender{}
	key, _ := keycode.Parse("x")
	if Dispatch(tbl, key, a, false, nil) {
		t.Fatal("expected no binding found")
	}
}

func TestDispatchReadOnlyPermissionDenied(t *testing.T) {
	tbl := New("prefix")
	key, _ := keycode.Parse("x")
	tbl.Bind(&Binding{Key: key, Command: "kill-pane"})

	a := &fakeAppender{}
	mutates := func(source string) bool { return source == "kill-pane" }
	if !Dispatch(tbl, key, a, true, mutates) {
		t.Fatal("expected binding to be found even when denied")
	}
	if len(a.errors) != 1 {
		t.Fatalf("expected a permission error to be appended, got %v", a.errors)
	}
	if len(a.sources) != 0 {
		t.Fatalf("expected no command appended, got %v", a.sources)
	}
}

func TestSnapshotAndReset(t *testing.T) {
	tbl := New("root")
	key, _ := keycode.Parse("q")
	tbl.Bind(&Binding{Key: key, Command: "detach-client"})
	tbl.SnapshotDefault()

	tbl.Bind(&Binding{Key: key, Command: "kill-session"})
	b, _ := tbl.Lookup(key)
	if b.Command != "kill-session" {
		t.Fatalf("expected user override, got %q", b.Command)
	}

	tbl.Reset()
	b, _ = tbl.Lookup(key)
	if b.Command != "detach-client" {
		t.Fatalf("expected reset to restore default, got %q", b.Command)
	}
}

func TestRegistryRemoveBumpsClients(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("copy-mode")

	var bumped []string
	r.Remove("copy-mode",
		func(tableName string) []string { return []string{"client-a", "client-b"} },
		func(clientName string) { bumped = append(bumped, clientName) },
	)
	if len(bumped) != 2 {
		t.Fatalf("expected 2 clients bumped, got %v", bumped)
	}
	if r.Get("copy-mode") != nil {
		t.Fatal("expected table to be removed from registry")
	}
}

func TestRegistryCannotRemoveRoot(t *testing.T) {
	r := NewRegistry()
	r.Remove(r.RootName(), func(string) []string { return nil }, func(string) {})
	if r.Get(r.RootName()) == nil {
		t.Fatal("root table must never be removable")
	}
}

func TestRefcountInvariant(t *testing.T) {
	tbl := New("x")
	tbl.Ref() // registry reference
	if tbl.Refcount() != 1 {
		t.Fatalf("expected refcount 1, got %d", tbl.Refcount())
	}
	tbl.Ref() // one client "in" the table
	if tbl.Refcount() != 2 {
		t.Fatalf("expected refcount 2, got %d", tbl.Refcount())
	}
	tbl.Unref()
	if tbl.Refcount() != 1 {
		t.Fatalf("expected refcount 1 after unref, got %d", tbl.Refcount())
	}
}

func TestRepeatWindow(t *testing.T) {
	now := time.Now()
	if !RepeatWindow(now, 500*time.Millisecond, now.Add(100*time.Millisecond)) {
		t.Fatal("expected still within repeat window")
	}
	if RepeatWindow(now, 500*time.Millisecond, now.Add(time.Second)) {
		t.Fatal("expected repeat window to have expired")
	}
	if RepeatWindow(now, 0, now) {
		t.Fatal("expected zero repeat-time to never hold the window open")
	}
}
