// Package keytable implements the modal key-binding engine of spec.md
// §4.C: named, reference-counted key tables with a user tree and a
// default tree, repeat-time handling, and dispatch into the command
// queue.
//
// Dispatch is grounded on dcosson-h2/internal/overlay.ReadInput's
// mode-switch loop (ModeDefault/ModePassthrough/ModeMenu byte dispatch);
// gomux generalizes "three fixed modes" into "named tables looked up by
// name", matching spec.md's modal key-table model.
package keytable

import (
	"sort"
	"sync"
	"time"

	"gomux/internal/keycode"
)

// Binding is one entry in a key table.
type Binding struct {
	Key      keycode.Code
	Command  string // source text handed to internal/langparse at dispatch time
	Repeat   bool
	Note     string
}

// Table is a named collection of bindings with a separate "default"
// layer that reset() restores from (spec.md: "Each table carries a user
// tree and a default tree; reset restores from default").
type Table struct {
	mu       sync.RWMutex
	Name     string
	user     map[keycode.Code]*Binding
	def      map[keycode.Code]*Binding
	refcount int // clients currently "in" this table, plus one while registered
}

// New creates an empty, unregistered table.
func New(name string) *Table {
	return &Table{
		Name: name,
		user: make(map[keycode.Code]*Binding),
		def:  make(map[keycode.Code]*Binding),
	}
}

// Bind installs or replaces a binding in the user layer.
func (t *Table) Bind(b *Binding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.user[b.Key] = b
}

// Unbind removes a user binding.
func (t *Table) Unbind(key keycode.Code) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.user, key)
}

// Lookup finds the binding for key, or (nil, false) if unbound.
func (t *Table) Lookup(key keycode.Code) (*Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.user[key]
	return b, ok
}

// SnapshotDefault copies every current user binding into the default
// layer (spec.md: "a deferred callback snapshots every user binding into
// the default tree so that reset can restore them"). Called once, after
// key-bindings-init has installed the built-in bindings.
func (t *Table) SnapshotDefault() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.def = make(map[keycode.Code]*Binding, len(t.user))
	for k, b := range t.user {
		dup := *b
		t.def[k] = &dup
	}
}

// Reset restores the user layer from the default layer.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.user = make(map[keycode.Code]*Binding, len(t.def))
	for k, b := range t.def {
		dup := *b
		t.user[k] = &dup
	}
}

// Bindings returns all user bindings sorted by key, for listing.
func (t *Table) Bindings() []*Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Binding, 0, len(t.user))
	for _, b := range t.user {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Ref/Unref track how many clients are currently "in" this table (spec.md
// invariant #8: key-table refcount == clients whose keytable pointer
// equals this table, plus one for being in the registry).
func (t *Table) Ref() {
	t.mu.Lock()
	t.refcount++
	t.mu.Unlock()
}

func (t *Table) Unref() {
	t.mu.Lock()
	t.refcount--
	t.mu.Unlock()
}

func (t *Table) Refcount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refcount
}

// Registry is the server-wide set of named key tables.
type Registry struct {
	mu       sync.Mutex
	tables   map[string]*Table
	rootName string
}

// NewRegistry creates a registry with a "root" table pre-registered, the
// table every client starts on.
func NewRegistry() *Registry {
	r := &Registry{tables: make(map[string]*Table), rootName: "root"}
	root := New(r.rootName)
	root.Ref() // registry's own reference
	r.tables[r.rootName] = root
	return r
}

// RootName returns the name of the default table clients start on.
func (r *Registry) RootName() string { return r.rootName }

// GetOrCreate returns the named table, creating and registering it if
// absent.
func (r *Registry) GetOrCreate(name string) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[name]
	if !ok {
		t = New(name)
		t.Ref()
		r.tables[name] = t
	}
	return t
}

// Get returns the named table, or nil if it does not exist.
func (r *Registry) Get(name string) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables[name]
}

// Remove deletes a key table from the registry (per spec.md §4.C); the
// root table is never removed. Clients on the removed table are bumped
// back to the root table. bump is invoked once per affected client name; the registry
// itself knows nothing about clients, so the caller supplies the list of
// client-table-name pairs to check.
func (r *Registry) Remove(name string, clientsOnTable func(tableName string) []string, bump func(clientName string)) {
	r.mu.Lock()
	t, ok := r.tables[name]
	if !ok || name == r.rootName {
		r.mu.Unlock()
		return
	}
	delete(r.tables, name)
	r.mu.Unlock()

	t.Unref()
	for _, clientName := range clientsOnTable(name) {
		bump(clientName)
	}
}

// RepeatWindow reports whether now is still within repeat-time of
// lastDispatch for a binding marked Repeat (spec.md: "the repeat flag
// keeps the table active for repeat-time after dispatch").
func RepeatWindow(lastDispatch time.Time, repeatTime time.Duration, now time.Time) bool {
	if repeatTime <= 0 {
		return false
	}
	return now.Sub(lastDispatch) < repeatTime
}
