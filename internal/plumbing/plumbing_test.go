package plumbing

import (
	"testing"
	"time"
)

func TestSatSub(t *testing.T) {
	if got := SatSub(3*time.Second, 5*time.Second); got != 0 {
		t.Fatalf("expected clamp to zero, got %v", got)
	}
	if got := SatSub(5*time.Second, 3*time.Second); got != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got)
	}
}

func TestSatSubTime(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	if got := SatSubTime(now, future); got != 0 {
		t.Fatalf("expected clamp to zero for future timestamp, got %v", got)
	}
	past := now.Add(-time.Minute)
	if got := SatSubTime(now, past); got < 59*time.Second || got > 61*time.Second {
		t.Fatalf("expected ~1m, got %v", got)
	}
}
