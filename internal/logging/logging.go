// Package logging provides the server-wide message log ring used for
// both operator-facing diagnostics and the in-band message log that
// cmdq_error/cmdq_print fall back to for non-interactive items.
//
// There is no third-party structured-logging dependency anywhere in the
// retrieval pack this project was distilled from; the teacher repo logs
// through the standard "log" package directly. This package follows that
// idiom, built on log/slog for level-tagged lines.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Entry is one line in the server message ring.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// Ring is a fixed-capacity, append-only-with-eviction log used as the
// server's "message log" (spec.md §3 Server entity).
type Ring struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	logger   *slog.Logger
}

// NewRing creates a ring with the given capacity. capacity <= 0 means
// unbounded (used only in tests).
func NewRing(capacity int) *Ring {
	return &Ring{
		capacity: capacity,
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// SetOutput redirects the underlying slog handler's writer (tests use this
// to capture output instead of stderr).
func (r *Ring) SetOutput(w *os.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func (r *Ring) append(level slog.Level, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Time: time.Now(), Level: level, Message: msg})
	if r.capacity > 0 && len(r.entries) > r.capacity {
		trim := len(r.entries) - r.capacity
		r.entries = r.entries[trim:]
	}
	r.mu.Unlock()
}

// Infof logs an informational line.
func (r *Ring) Infof(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.append(slog.LevelInfo, msg)
	r.logger.Info(msg)
}

// Errorf logs an error line.
func (r *Ring) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.append(slog.LevelError, msg)
	r.logger.Error(msg)
}

// Debugf logs a debug line, gated by GOMUX_DEBUG per the teacher's
// H2_DEBUG_KEYS-style environment-toggle convention.
func (r *Ring) Debugf(format string, args ...any) {
	if os.Getenv("GOMUX_DEBUG") == "" {
		return
	}
	msg := fmt.Sprintf(format, args...)
	r.append(slog.LevelDebug, msg)
	r.logger.Debug(msg)
}

// Drain returns a copy of all entries currently in the ring, oldest first.
func (r *Ring) Drain() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of entries currently retained.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
