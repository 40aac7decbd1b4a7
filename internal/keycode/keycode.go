// Package keycode defines the 64-bit key_code representation shared by
// the options engine (colour/key-typed option values, spec.md §4.A) and
// the key-binding engine (spec.md §4.C): a Unicode codepoint or a named
// special key, ORed with modifier bits.
package keycode

import (
	"fmt"
	"strings"
)

// Code is the normalized key value: either a Unicode codepoint (< Special)
// or one of the Special.. constants, with Modifier bits ORed in from bit 24 up.
type Code uint64

const (
	ModShift Code = 1 << 24
	ModCtrl  Code = 1 << 25
	ModMeta  Code = 1 << 26 // Alt/Meta

	modMask = ModShift | ModCtrl | ModMeta

	// Special keys start above any valid Unicode codepoint (max 0x10FFFF)
	// and below the modifier bits.
	specialBase Code = 0x200000

	KeyUp Code = specialBase + iota
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyNone
)

var namesToKey = map[string]Code{
	"Up": KeyUp, "Down": KeyDown, "Left": KeyLeft, "Right": KeyRight,
	"Home": KeyHome, "End": KeyEnd, "PPage": KeyPageUp, "NPage": KeyPageDown,
	"IC": KeyInsert, "DC": KeyDelete, "BSpace": KeyBackspace,
	"Tab": KeyTab, "Enter": KeyEnter, "Escape": KeyEscape,
	"F1": KeyF1, "F2": KeyF2, "F3": KeyF3, "F4": KeyF4, "F5": KeyF5, "F6": KeyF6,
	"F7": KeyF7, "F8": KeyF8, "F9": KeyF9, "F10": KeyF10, "F11": KeyF11, "F12": KeyF12,
}

var keyToName = func() map[Code]string {
	m := make(map[Code]string, len(namesToKey))
	for n, k := range namesToKey {
		m[k] = n
	}
	return m
}()

// Base strips modifier bits, returning the bare key.
func (c Code) Base() Code { return c &^ modMask }

// Modifiers returns the modifier bits set on c.
func (c Code) Modifiers() Code { return c & modMask }

// WithModifiers ORs the given modifier bits onto c's base.
func (c Code) WithModifiers(mods Code) Code { return c.Base() | (mods & modMask) }

// Parse converts a key-string like "C-a", "M-Up", "Enter", or "x" into a
// Code. Modifier prefixes ("C-", "M-", "S-") may repeat and combine.
func Parse(s string) (Code, error) {
	if s == "" {
		return 0, fmt.Errorf("empty key name")
	}
	var mods Code
	for matched := true; matched; {
		matched = false
		switch {
		case strings.HasPrefix(s, "C-"):
			mods |= ModCtrl
			s = s[2:]
			matched = true
		case strings.HasPrefix(s, "M-"):
			mods |= ModMeta
			s = s[2:]
			matched = true
		case strings.HasPrefix(s, "S-"):
			mods |= ModShift
			s = s[2:]
			matched = true
		}
	}
	if s == "" {
		return 0, fmt.Errorf("key name has no base key")
	}
	if base, ok := namesToKey[s]; ok {
		return base | mods, nil
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return Code(runes[0]) | mods, nil
	}
	return 0, fmt.Errorf("unknown key name %q", s)
}

// String renders c back to its key-string form, inverse of Parse.
func (c Code) String() string {
	var b strings.Builder
	if c&ModCtrl != 0 {
		b.WriteString("C-")
	}
	if c&ModMeta != 0 {
		b.WriteString("M-")
	}
	if c&ModShift != 0 {
		b.WriteString("S-")
	}
	base := c.Base()
	if name, ok := keyToName[base]; ok {
		b.WriteString(name)
	} else {
		b.WriteRune(rune(base))
	}
	return b.String()
}
