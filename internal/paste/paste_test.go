package paste

import "testing"

// TestEvictionScenario pins the newest-first eviction order paste.rs's
// paste_add uses: once the automatic count is at the limit, adding a new
// automatic buffer evicts the most recently created surviving automatic
// buffer, not the oldest.
func TestEvictionScenario(t *testing.T) {
	s := New(2)
	s.Add("buf", []byte("a"))
	s.Add("buf", []byte("b"))
	s.Add("buf", []byte("c"))

	_, total := s.Count()
	if total != 2 {
		t.Fatalf("expected 2 buffers remaining, got %d", total)
	}

	walked := s.Walk()
	if len(walked) != 2 {
		t.Fatalf("expected 2 buffers in walk, got %d", len(walked))
	}
	if string(walked[0].Data) != "a" || string(walked[1].Data) != "c" {
		t.Fatalf("unexpected contents: %q, %q", walked[0].Data, walked[1].Data)
	}

	top := s.GetTop()
	if top == nil || string(top.Data) != "c" {
		t.Fatalf("expected top buffer c, got %+v", top)
	}
}

func TestNamedBuffersNeverEvicted(t *testing.T) {
	s := New(1)
	s.Set("saved", []byte("keep-me"))
	s.Add("buf", []byte("a"))
	s.Add("buf", []byte("b"))

	if b := s.Get("saved"); b == nil {
		t.Fatal("expected named buffer to survive automatic eviction")
	}
	auto, total := s.Count()
	if auto != 1 {
		t.Fatalf("expected 1 automatic buffer retained, got %d", auto)
	}
	if total != 2 {
		t.Fatalf("expected 2 total buffers, got %d", total)
	}
}

func TestSetRoundTrip(t *testing.T) {
	s := New(10)
	s.Set("x", []byte("payload"))
	b := s.Get("x")
	if b == nil || string(b.Data) != "payload" {
		t.Fatalf("round trip failed: %+v", b)
	}
}

func TestRenameClearsAutomatic(t *testing.T) {
	s := New(10)
	b := s.Add("buf", []byte("data"))
	if err := s.Rename(b.Name, "kept"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	renamed := s.Get("kept")
	if renamed == nil || renamed.Automatic {
		t.Fatalf("expected renamed buffer to be non-automatic: %+v", renamed)
	}
}

func TestReplaceKeepsOrder(t *testing.T) {
	s := New(10)
	b := s.Set("x", []byte("one"))
	order := b.Order
	if err := s.Replace("x", []byte("two")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got := s.Get("x")
	if string(got.Data) != "two" {
		t.Fatalf("expected replaced payload, got %q", got.Data)
	}
	if got.Order != order {
		t.Fatalf("expected order to be preserved, got %d want %d", got.Order, order)
	}
}

func TestHookFiresOnMutation(t *testing.T) {
	s := New(10)
	var events []string
	s.SetHook(func(event, name string) {
		events = append(events, event+":"+name)
	})
	s.Set("x", []byte("a"))
	s.Remove("x")
	if len(events) != 2 {
		t.Fatalf("expected 2 hook events, got %v", events)
	}
}
