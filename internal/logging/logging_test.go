package logging

import "testing"

func TestRingEviction(t *testing.T) {
	r := NewRing(2)
	r.Infof("one")
	r.Infof("two")
	r.Infof("three")

	entries := r.Drain()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "two" || entries[1].Message != "three" {
		t.Fatalf("unexpected eviction order: %+v", entries)
	}
}

func TestRingUnbounded(t *testing.T) {
	r := NewRing(0)
	for i := 0; i < 100; i++ {
		r.Infof("line")
	}
	if r.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", r.Len())
	}
}

func TestDebugfGatedByEnv(t *testing.T) {
	t.Setenv("GOMUX_DEBUG", "")
	r := NewRing(0)
	r.Debugf("hidden")
	if r.Len() != 0 {
		t.Fatalf("expected debug line suppressed, got %d entries", r.Len())
	}

	t.Setenv("GOMUX_DEBUG", "1")
	r.Debugf("shown")
	if r.Len() != 1 {
		t.Fatalf("expected debug line recorded, got %d entries", r.Len())
	}
}
