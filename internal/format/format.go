// Package format implements the "#{...}" expression evaluator and
// status-line composition of spec.md §4.K: variable substitution over a
// context sourced from the server/session/window/pane/client, invoked by
// both status-line rendering and any command argument marked expandable.
//
// Grounded on dcosson-h2/internal/overlay/render.go's bar-composition
// style (fixed-width sections, ANSI colour spans, width trimming),
// generalized from one hardcoded bar to spec.md's left/right/centre/
// absolute-centre/window-list sections plus style-range tracking.
//
// Per SPEC_FULL.md §5 Non-goals, the evaluator supports straightforward
// "#{name}" variable substitution only: no nested conditionals, no
// operators, no #{?cond,a,b} ternary forms. That richer expression
// language is explicitly out of scope for the core.
package format

import "strings"

// Vars is a flattened variable namespace for one expansion: the caller
// (internal/mux) assembles it from whichever of server/session/window/
// pane/client entities apply to the context being formatted.
type Vars map[string]string

// Expand substitutes every "#{name}" (and the bare "#S"/"#W"/"#P"-style
// single-letter shorthands tmux also recognizes) occurrence in template
// with vars[name], leaving unknown names as the empty string, and "##"
// as a literal "#".
func Expand(template string, vars Vars) string {
	var b strings.Builder
	r := []rune(template)
	for i := 0; i < len(r); i++ {
		if r[i] != '#' {
			b.WriteRune(r[i])
			continue
		}
		if i+1 >= len(r) {
			b.WriteRune('#')
			break
		}
		switch r[i+1] {
		case '#':
			b.WriteRune('#')
			i++
		case '{':
			end := matchBrace(r, i+1)
			if end < 0 {
				b.WriteRune(r[i])
				continue
			}
			name := string(r[i+2 : end])
			b.WriteString(vars[name])
			i = end
		case 'S':
			b.WriteString(vars["session_name"])
			i++
		case 'W':
			b.WriteString(vars["window_name"])
			i++
		case 'I':
			b.WriteString(vars["window_index"])
			i++
		case 'P':
			b.WriteString(vars["pane_index"])
			i++
		case 'T':
			b.WriteString(vars["pane_title"])
			i++
		default:
			b.WriteRune(r[i])
		}
	}
	return b.String()
}

// matchBrace returns the index of the "}" balancing the "{" at open,
// honoring nested "#{...}" (spec.md §4.D: "nested #-escaping preserved
// verbatim"), or -1 if unbalanced.
func matchBrace(r []rune, open int) int {
	depth := 0
	for i := open; i < len(r); i++ {
		switch r[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// EvalCondition resolves a "%if"/"%elif" expression (spec.md §4.D): the
// expression is expanded as a format string, then treated as truthy
// unless the result is empty or the literal "0" (mirrors tmux's
// format_true semantics for a plain variable condition).
func EvalCondition(expr string, vars Vars) (bool, error) {
	v := Expand(expr, vars)
	return v != "" && v != "0", nil
}
