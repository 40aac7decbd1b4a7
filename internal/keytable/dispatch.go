package keytable

import "gomux/internal/keycode"

// Appender is the minimal command-queue surface the key engine dispatches
// into (spec.md §4.C dispatch). Defined locally, rather than importing
// internal/cmdqueue directly, so the key engine can be unit-tested without
// pulling in the full queue/parser stack -- mirrors the teacher's own
// preference for small scoped interfaces over importing whole packages
// (e.g. message.IdleFunc, message.WaitForIdleFunc in dcosson-h2).
type Appender interface {
	// AppendSource parses and appends source (a binding's Command text)
	// as a new command-list item.
	AppendSource(source string) error
	// AppendError appends a synthetic error item, used when a read-only
	// client is bound to a mutating command (spec.md: "If the client
	// lacks write access, a synthetic error item is appended").
	AppendError(message string) error
}

// MutatesFunc reports whether a command source would mutate state (i.e.
// is not tagged read-only/CMD_READONLY in tmux terms). Supplied by the
// caller, which owns the builtin registry.
type MutatesFunc func(source string) bool

// Dispatch resolves key against the table and, if bound, appends its
// command-list (or a permission error) to the queue via appender. It
// reports whether a binding was found.
func Dispatch(t *Table, key keycode.Code, appender Appender, readOnly bool, mutates MutatesFunc) bool {
	b, ok := t.Lookup(key)
	if !ok {
		return false
	}
	if readOnly && mutates != nil && mutates(b.Command) {
		appender.AppendError("permission denied: read-only client")
		return true
	}
	appender.AppendSource(b.Command)
	return true
}
