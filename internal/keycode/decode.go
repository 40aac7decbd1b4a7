package keycode

import "unicode/utf8"

// csiFinal maps a CSI final byte (the byte that ends "ESC [ ... final") to
// the special key it represents, covering the arrow/nav cluster a terminal
// actually sends. Grounded on dcosson-h2/internal/overlay's
// HandleCSI switch over the same final bytes (A/B/C/D/H/F/~ etc.), adapted
// from "dispatch into the overlay's own history/menu handlers" to "produce
// a keycode.Code for the key engine".
var csiFinal = map[byte]Code{
	'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft,
	'H': KeyHome, 'F': KeyEnd,
}

// csiTilde maps the numeric parameter of a "ESC [ N ~" sequence to a
// special key.
var csiTilde = map[byte]Code{
	'1': KeyHome, '2': KeyInsert, '3': KeyDelete, '4': KeyEnd,
	'5': KeyPageUp, '6': KeyPageDown,
}

// Decode reads one key from the front of buf, returning the key and the
// number of bytes consumed. It recognizes plain UTF-8 runes, C0 control
// bytes (folded to ModCtrl on the matching letter), and a useful subset of
// ESC/CSI/SS3 escape sequences (arrow keys, Home/End, PageUp/PageDown,
// Insert/Delete, F1-F4 as SS3 P-S). An unrecognized CSI sequence is
// consumed whole and reported as KeyEscape; an unrecognized SS3 sequence
// yields KeyEscape for the ESC byte alone. Either way input never stalls.
//
// Grounded on the scan-and-consume shape of
// dcosson-h2/internal/overlay.HandleEscape/HandleCSI (same "advance i over
// parameter bytes, then switch on the final byte" structure), generalized
// from "dispatch directly into overlay state" to "return a Code the key
// engine can look up in a binding table" (spec.md §4.C).
func Decode(buf []byte) (Code, int) {
	if len(buf) == 0 {
		return KeyNone, 0
	}
	b := buf[0]

	if b == 0x1B {
		return decodeEscape(buf)
	}
	if b == 0x7F {
		return KeyBackspace, 1
	}
	if b == '\r' || b == '\n' {
		return KeyEnter, 1
	}
	if b == '\t' {
		return KeyTab, 1
	}
	if b < 0x20 {
		// C0 control byte: Ctrl held with the corresponding letter.
		return Code(b+'a'-1) | ModCtrl, 1
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		return Code(b), 1
	}
	return Code(r), size
}

func decodeEscape(buf []byte) (Code, int) {
	if len(buf) == 1 {
		return KeyEscape, 1
	}
	switch buf[1] {
	case '[':
		return decodeCSI(buf)
	case 'O':
		if len(buf) >= 3 {
			if k, ok := csiFinal[buf[2]]; ok {
				return k, 3
			}
			if buf[2] >= 'P' && buf[2] <= 'S' {
				return KeyF1 + Code(buf[2]-'P'), 3
			}
			return KeyEscape, 1
		}
		return KeyEscape, 1
	default:
		// Alt/Meta + key: ESC followed by one more decoded key.
		k, n := Decode(buf[1:])
		if k == KeyNone {
			return KeyEscape, 1
		}
		return k.WithModifiers(ModMeta), 1 + n
	}
}

func decodeCSI(buf []byte) (Code, int) {
	rest := buf[2:]
	i := 0
	for i < len(rest) && rest[i] >= 0x30 && rest[i] <= 0x3F {
		i++
	}
	for i < len(rest) && rest[i] >= 0x20 && rest[i] <= 0x2F {
		i++
	}
	if i >= len(rest) {
		return KeyEscape, 2 + i
	}
	final := rest[i]
	total := 2 + i + 1

	if final == '~' && i > 0 {
		if k, ok := csiTilde[rest[0]]; ok {
			return k, total
		}
		return KeyEscape, total
	}
	if k, ok := csiFinal[final]; ok {
		return k, total
	}
	return KeyEscape, total
}
