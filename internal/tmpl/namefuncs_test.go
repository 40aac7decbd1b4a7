package tmpl

import "testing"

func TestRandomNameGeneratesName(t *testing.T) {
	name, err := RandomName(func() string { return "bright-hare" }, nil)
	if err != nil {
		t.Fatalf("RandomName: %v", err)
	}
	if name != "bright-hare" {
		t.Fatalf("got %q, want %q", name, "bright-hare")
	}
}

func TestRandomNameAvoidsCollision(t *testing.T) {
	calls := 0
	gen := func() string {
		calls++
		if calls <= 2 {
			return "taken-name"
		}
		return "fresh-name"
	}
	name, err := RandomName(gen, []string{"taken-name"})
	if err != nil {
		t.Fatalf("RandomName: %v", err)
	}
	if name != "fresh-name" {
		t.Fatalf("got %q, want %q", name, "fresh-name")
	}
	if calls != 3 {
		t.Fatalf("expected 3 generate calls, got %d", calls)
	}
}

func TestRandomNameErrorAfterMaxRetries(t *testing.T) {
	_, err := RandomName(func() string { return "always-taken" }, []string{"always-taken"})
	if err == nil {
		t.Fatal("expected error after max retries")
	}
}

func TestAutoIncrementNoExisting(t *testing.T) {
	if got := AutoIncrement("worker", nil); got != "worker-1" {
		t.Fatalf("got %q, want %q", got, "worker-1")
	}
}

func TestAutoIncrementFindsMax(t *testing.T) {
	existing := []string{"worker-1", "worker-3", "worker-2", "other-5"}
	if got := AutoIncrement("worker", existing); got != "worker-4" {
		t.Fatalf("got %q, want %q", got, "worker-4")
	}
}

func TestAutoIncrementIgnoresPartialMatches(t *testing.T) {
	existing := []string{"worker-extra-1", "my-worker-1"}
	if got := AutoIncrement("worker", existing); got != "worker-1" {
		t.Fatalf("got %q, want %q", got, "worker-1")
	}
}

func TestNextWindowIndexFillsGap(t *testing.T) {
	if got := NextWindowIndex([]int{0, 1, 3}, 0); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestNextWindowIndexHonorsBaseIndex(t *testing.T) {
	if got := NextWindowIndex(nil, 1); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	if got := NextWindowIndex([]int{1, 2}, 1); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}
