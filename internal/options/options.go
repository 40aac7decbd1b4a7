// Package options implements the hierarchical, typed option-tree engine
// described in spec.md §4.A: server→session→window→pane scoping with
// parent fall-through, array support, and the small set of declared
// types (string, number, flag, key, colour, choice, command).
//
// There is no generic "typed hierarchical config tree" library anywhere
// in the retrieval pack; the teacher and the rest of the corpus reach for
// plain structs and maps for configuration (e.g. dcosson-h2's
// config.Config is a hand-written yaml-tagged struct). This package
// follows that idiom: a parent-pointer tree of maps, not a generic
// container library.
package options

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the declared type of an option entry.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindFlag
	KindKey
	KindColour
	KindChoice
	KindCommand
)

// TableEntry describes one known option: its name, declared kind, default
// value, and (for numbers) the valid range, or (for choices) the closed
// set of legal values. The options table is the canonical list of names
// the engine recognizes; names that start with "@" bypass it entirely as
// free-form user options.
type TableEntry struct {
	Name      string
	Kind      Kind
	Default   string
	Min, Max  int64 // only meaningful for KindNumber
	Choices   []string
	IsArray   bool
	Separator string // array-assign split separator; "" means "append as single"
}

// Value holds the resolved value of one option entry. Exactly one of the
// scalar fields is meaningful, governed by Kind; Array is used instead
// when IsArray is true on the owning entry.
type Value struct {
	Kind   Kind
	String string
	Number int64
	Flag   bool
	Array  map[uint32]string
}

// Entry is a concrete, possibly-overridden option value living in one
// Tree node.
type Entry struct {
	Table *TableEntry
	Value Value
}

// Tree is one node in the option scope chain (spec.md: "Options trees
// form a parent chain; child lookups fall through to parent on miss").
type Tree struct {
	parent  *Tree
	entries map[string]*Entry
	table   map[string]*TableEntry
	aliases map[string]string
}

// NewTree creates a tree scoped under parent (nil for the server/root
// tree). table is the set of option names this tree's scope recognizes;
// aliases remaps legacy names to canonical ones before a second lookup,
// per spec.md §4.A.
func NewTree(parent *Tree, table []*TableEntry, aliases map[string]string) *Tree {
	t := &Tree{
		parent:  parent,
		entries: make(map[string]*Entry),
		table:   make(map[string]*TableEntry, len(table)),
		aliases: aliases,
	}
	for _, te := range table {
		dup := *te
		t.table[te.Name] = &dup
	}
	return t
}

// Errors surfaced by the engine (spec.md §4.A "Errors").
var (
	ErrUnknownOption  = fmt.Errorf("unknown option")
	ErrAmbiguous      = fmt.Errorf("ambiguous option (prefix)")
	ErrInvalidValue   = fmt.Errorf("value is invalid")
	ErrNotArray       = fmt.Errorf("not an array")
	ErrWrongArrayType = fmt.Errorf("wrong array type")
	ErrBadRange       = fmt.Errorf("bad colour/key/value/range")
)

// resolveTableEntry finds the TableEntry for name, following the alias
// table on a miss, then attempting unambiguous-prefix completion.
func (t *Tree) resolveTableEntry(name string) (*TableEntry, error) {
	if strings.HasPrefix(name, "@") {
		return &TableEntry{Name: name, Kind: KindString}, nil
	}
	if te, ok := t.table[name]; ok {
		return te, nil
	}
	if alias, ok := t.aliases[name]; ok {
		if te, ok := t.table[alias]; ok {
			return te, nil
		}
	}
	// Unambiguous-prefix completion.
	var matches []*TableEntry
	for n, te := range t.table {
		if strings.HasPrefix(n, name) {
			matches = append(matches, te)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOption, name)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %s could mean %s", ErrAmbiguous, name, strings.Join(names, ", "))
	}
}

// entryFor returns (creating if necessary) the Entry for a resolved
// table entry in this tree node only (no parent fall-through).
func (t *Tree) entryFor(te *TableEntry) *Entry {
	e, ok := t.entries[te.Name]
	if !ok {
		e = &Entry{Table: te, Value: Default(te)}
		t.entries[te.Name] = e
	}
	return e
}

// Default returns the zero value for a table entry, parsed from its
// Default string (spec.md: `default(table-entry)`).
func Default(te *TableEntry) Value {
	v, err := FromString(te, te.Default, false, Value{})
	if err != nil {
		// A malformed built-in default is a programming error in the
		// options table, not a user-facing condition.
		return Value{Kind: te.Kind}
	}
	return v
}

// Get resolves name starting at t and falling through to parent trees on
// miss. The option name is looked up only in t's own table (and its
// aliases); an unknown name is an error even if a parent's table knows
// it. A recognized option with no local override still resolves to its
// default at the root.
func (t *Tree) Get(name string) (Value, error) {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return Value{}, err
	}
	for n := t; n != nil; n = n.parent {
		if e, ok := n.entries[te.Name]; ok {
			return e.Value, nil
		}
	}
	return Default(te), nil
}

// GetOnly resolves name only in this tree node, with no parent
// fall-through (spec.md: `get-only`).
func (t *Tree) GetOnly(name string) (Value, bool, error) {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return Value{}, false, err
	}
	e, ok := t.entries[te.Name]
	if !ok {
		return Value{}, false, nil
	}
	return e.Value, true, nil
}

// SetString sets (or, if append, appends to) a string-typed option.
func (t *Tree) SetString(name string, value string, doAppend bool) error {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return err
	}
	cur, _, _ := t.GetOnly(name)
	v, err := FromString(te, value, doAppend, cur)
	if err != nil {
		return err
	}
	t.entryFor(te).Value = v
	return nil
}

// SetNumber sets a number-typed option.
func (t *Tree) SetNumber(name string, value int64) error {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return err
	}
	if te.Kind != KindNumber {
		return fmt.Errorf("%w: %s is not a number option", ErrInvalidValue, name)
	}
	if value < te.Min || value > te.Max {
		return fmt.Errorf("%w: %d outside [%d,%d]", ErrBadRange, value, te.Min, te.Max)
	}
	e := t.entryFor(te)
	e.Value = Value{Kind: KindNumber, Number: value}
	return nil
}

// ArrayGet returns a single indexed element of an array option.
func (t *Tree) ArrayGet(name string, idx uint32) (string, error) {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return "", err
	}
	if !te.IsArray {
		return "", fmt.Errorf("%w: %s", ErrNotArray, name)
	}
	for n := t; n != nil; n = n.parent {
		if e, ok := n.entries[te.Name]; ok {
			if e.Value.Array == nil {
				break
			}
			if v, ok := e.Value.Array[idx]; ok {
				return v, nil
			}
			return "", nil
		}
	}
	return "", nil
}

// ArraySet assigns (or appends to) one indexed element of an array option.
func (t *Tree) ArraySet(name string, idx uint32, value string, doAppend bool) error {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return err
	}
	if !te.IsArray {
		return fmt.Errorf("%w: %s", ErrNotArray, name)
	}
	e := t.entryFor(te)
	if e.Value.Array == nil {
		e.Value.Array = make(map[uint32]string)
	}
	if doAppend {
		e.Value.Array[idx] += value
	} else {
		e.Value.Array[idx] = value
	}
	return nil
}

// ArrayAssign splits joined on any character of the entry's declared
// Separator and assigns the pieces to indices 0, 1, ..., replacing the
// array's previous contents. An entry whose Separator is empty gets
// joined appended whole as one element; no " ," fallback separator is
// applied to such entries.
func (t *Tree) ArrayAssign(name string, joined string) error {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return err
	}
	if !te.IsArray {
		return fmt.Errorf("%w: %s", ErrNotArray, name)
	}
	sep := te.Separator
	if sep == "" {
		return t.ArraySet(name, nextArrayIndex(t, te), joined, false)
	}
	parts := strings.FieldsFunc(joined, func(r rune) bool {
		return strings.ContainsRune(sep, r)
	})
	e := t.entryFor(te)
	if e.Value.Array == nil {
		e.Value.Array = make(map[uint32]string)
	}
	e.Value.Array = make(map[uint32]string, len(parts))
	for i, p := range parts {
		e.Value.Array[uint32(i)] = p
	}
	return nil
}

func nextArrayIndex(t *Tree, te *TableEntry) uint32 {
	e, ok := t.entries[te.Name]
	if !ok || e.Value.Array == nil {
		return 0
	}
	var max uint32
	found := false
	for idx := range e.Value.Array {
		if !found || idx > max {
			max = idx
			found = true
		}
	}
	if !found {
		return 0
	}
	return max + 1
}

// RemoveOrDefault clears an array index, or (for scalar options) resets
// the entry so lookup falls back to parent/default.
func (t *Tree) RemoveOrDefault(name string, idx *uint32) error {
	te, err := t.resolveTableEntry(name)
	if err != nil {
		return err
	}
	e, ok := t.entries[te.Name]
	if !ok {
		return nil
	}
	if idx != nil {
		if e.Value.Array != nil {
			delete(e.Value.Array, *idx)
		}
		return nil
	}
	delete(t.entries, te.Name)
	return nil
}

// Names returns all option names known to the table chain, sorted, for
// command-language completion/listing.
func (t *Tree) Names() []string {
	seen := map[string]bool{}
	for n := t; n != nil; n = n.parent {
		for name := range n.table {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// parseNumber implements spec.md's strtonum-style parsing: the whole
// remaining string must parse as a base-10 integer within [min,max], with
// no leading/trailing garbage permitted.
func parseNumber(s string, min, max int64) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty number", ErrInvalidValue)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidValue, s)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%w: %d outside [%d,%d]", ErrBadRange, n, min, max)
	}
	return n, nil
}
