// Package paste implements the named, time-ordered clipboard buffer
// store described in spec.md §4.B: automatic buffers evicted by
// buffer-limit, named buffers that are never evicted automatically, and
// an insertion-ordered walk for the "top of stack" accessor.
//
// Grounded on the teacher's id/ordering idiom in
// dcosson-h2/internal/message (PrepareMessage stamps every message with a
// uuid and a creation time; the delivery queue drains oldest-first). Paste
// buffers use a monotonic sequence number instead of a uuid, per spec.md's
// literal "{prefix}{N}, N monotonic" naming rule for automatic buffers.
package paste

import (
	"fmt"
	"sync"
	"time"
)

// Buffer is one clipboard entry.
type Buffer struct {
	Name      string
	Data      []byte
	CreatedAt time.Time
	Order     uint64
	Automatic bool
}

// Hook is called after every store mutation (create/remove), per spec.md
// §4.B "Notification of create/remove is emitted through the hook
// subsystem on every mutation." event is "paste-buffer-created" or
// "paste-buffer-deleted".
type Hook func(event string, name string)

// Store holds all paste buffers, indexed by name and by insertion order.
type Store struct {
	mu      sync.Mutex
	byName  map[string]*Buffer
	order   []*Buffer // oldest to newest
	nextSeq uint64
	nextNum uint64 // next auto-generated {prefix}{N} suffix
	limit   int
	hook    Hook
}

// New creates an empty store with the given automatic-buffer limit.
func New(bufferLimit int) *Store {
	return &Store{
		byName: make(map[string]*Buffer),
		limit:  bufferLimit,
	}
}

// SetHook installs the mutation-notification callback.
func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// SetLimit updates the automatic-buffer eviction limit (tracks the
// buffer-limit option, see internal/options).
func (s *Store) SetLimit(limit int) {
	s.mu.Lock()
	s.limit = limit
	s.evictForLimitLocked()
	s.mu.Unlock()
}

// Add creates a new automatic buffer named "{prefix}{N}" with N monotonic,
// evicting automatic buffers newest-first until the limit holds, before
// the new buffer is inserted (paste.rs's paste_add: a reverse walk of the
// time tree freeing automatic buffers while the automatic count is still
// >= buffer-limit). This evicts the most recently created automatic
// buffers first, not the oldest.
func (s *Store) Add(prefix string, data []byte) *Buffer {
	s.mu.Lock()
	s.evictForLimitLocked()

	var name string
	for {
		name = fmt.Sprintf("%s%d", prefix, s.nextNum)
		s.nextNum++
		if _, exists := s.byName[name]; !exists {
			break
		}
	}
	b := s.insertLocked(name, data, true)
	s.mu.Unlock()

	s.notify("paste-buffer-created", b.Name)
	return b
}

// Set creates or replaces a named (non-automatic) buffer. If name is
// empty, this falls back to Add with the automatic "buffer" prefix
// (spec.md §4.B).
func (s *Store) Set(name string, data []byte) *Buffer {
	if name == "" {
		return s.Add("buffer", data)
	}
	s.mu.Lock()
	if existing, ok := s.byName[name]; ok {
		existing.Data = data
		s.mu.Unlock()
		s.notify("paste-buffer-created", name)
		return existing
	}
	b := s.insertLocked(name, data, false)
	s.mu.Unlock()
	s.notify("paste-buffer-created", b.Name)
	return b
}

func (s *Store) insertLocked(name string, data []byte, automatic bool) *Buffer {
	b := &Buffer{
		Name:      name,
		Data:      data,
		CreatedAt: time.Now(),
		Order:     s.nextSeq,
		Automatic: automatic,
	}
	s.nextSeq++
	s.byName[name] = b
	s.order = append(s.order, b)
	return b
}

// evictForLimitLocked walks s.order from newest to oldest, freeing
// automatic buffers while the automatic count is still >= s.limit, then
// stopping as soon as it drops below -- the literal paste_add eviction
// order from paste.rs, not an oldest-first LRU. Must be called with s.mu
// held, and before the buffer that triggered the check is inserted.
func (s *Store) evictForLimitLocked() {
	if s.limit <= 0 {
		return
	}
	autoCount := 0
	for _, b := range s.order {
		if b.Automatic {
			autoCount++
		}
	}
	for i := len(s.order) - 1; i >= 0 && autoCount >= s.limit; i-- {
		b := s.order[i]
		if !b.Automatic {
			continue
		}
		delete(s.byName, b.Name)
		s.order = append(s.order[:i], s.order[i+1:]...)
		autoCount--
		s.notify("paste-buffer-deleted", b.Name)
	}
}

// Get returns the named buffer, or nil if it doesn't exist.
func (s *Store) Get(name string) *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byName[name]
}

// Rename clears the automatic flag and changes the buffer's name (spec.md
// §4.B paste-rename).
func (s *Store) Rename(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byName[oldName]
	if !ok {
		return fmt.Errorf("no such buffer: %s", oldName)
	}
	if _, exists := s.byName[newName]; exists {
		return fmt.Errorf("buffer already exists: %s", newName)
	}
	delete(s.byName, oldName)
	b.Name = newName
	b.Automatic = false
	s.byName[newName] = b
	return nil
}

// Replace swaps the payload of an existing buffer, keeping its order
// (spec.md §4.B paste-replace).
func (s *Store) Replace(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("no such buffer: %s", name)
	}
	b.Data = data
	return nil
}

// Remove deletes a named buffer.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	b, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("no such buffer: %s", name)
	}
	delete(s.byName, name)
	for i, e := range s.order {
		if e == b {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify("paste-buffer-deleted", name)
	return nil
}

// Walk yields all buffers oldest-to-newest (spec.md §4.B paste-walk).
func (s *Store) Walk() []*Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Buffer, len(s.order))
	copy(out, s.order)
	return out
}

// GetTop returns the most recent automatic buffer and its name, or nil if
// none exists (spec.md §4.B paste-get-top).
func (s *Store) GetTop() *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.order[i].Automatic {
			return s.order[i]
		}
	}
	return nil
}

// Count returns the number of automatic and total buffers currently held.
func (s *Store) Count() (automatic, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.order {
		if b.Automatic {
			automatic++
		}
	}
	return automatic, len(s.order)
}

func (s *Store) notify(event, name string) {
	if s.hook != nil {
		s.hook(event, name)
	}
}
