// Package tmpl generates default session/window names (spec.md §3:
// sessions and windows both carry a Name attribute, auto-assigned when
// the client does not supply one, and re-assigned by `automatic-rename`
// while a window's running program changes).
//
// Grounded on the teacher's tmpl.NameFuncs: the same collision-avoiding
// "keep retrying the generator until it's unique" and "find the highest
// numeric suffix already in use" shapes, trimmed to plain functions since
// gomux has no user-facing template language of its own to plug these
// into (the teacher wired them into text/template FuncMaps for agent
// naming prompts; gomux's formatter is internal/format's "#{...}"
// evaluator instead, which these functions feed a candidate string into,
// not a template).
package tmpl

import (
	"fmt"
	"regexp"
	"strconv"
)

const maxNameRetries = 100

// RandomName calls generate repeatedly until it returns a name not in
// existing, or gives up after maxNameRetries attempts.
func RandomName(generate func() string, existing []string) (string, error) {
	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[n] = true
	}
	for i := 0; i < maxNameRetries; i++ {
		name := generate()
		if !taken[name] {
			return name, nil
		}
	}
	return "", fmt.Errorf("tmpl: RandomName: no unique name after %d retries", maxNameRetries)
}

// AutoIncrement returns "<prefix>-N" where N is one greater than the
// highest "<prefix>-N" suffix already present in existing. Used for
// session names like "gomux-1", "gomux-2" when the caller wants a
// readable, de-duplicated series rather than a random name.
func AutoIncrement(prefix string, existing []string) string {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)$`)
	maxN := 0
	for _, name := range existing {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxN {
			maxN = n
		}
	}
	return fmt.Sprintf("%s-%d", prefix, maxN+1)
}

// NextWindowIndex returns the lowest integer >= baseIndex not already
// present in used, honoring tmux's "fill gaps left by closed windows"
// convention for window indices (spec.md §3 Window, base-index aware).
func NextWindowIndex(used []int, baseIndex int) int {
	taken := make(map[int]bool, len(used))
	for _, n := range used {
		taken[n] = true
	}
	for i := baseIndex; ; i++ {
		if !taken[i] {
			return i
		}
	}
}
