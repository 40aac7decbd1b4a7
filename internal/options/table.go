package options

import "fmt"

// Table is the subset of gomux's recognized option names, mirroring the
// shape of tmux's options-table.c but trimmed to what gomux's builtins
// actually consult (per SPEC_FULL.md §4 Options detail).
var (
	ServerTable = []*TableEntry{
		{Name: "exit-empty", Kind: KindFlag, Default: "on"},
		{Name: "exit-unattached", Kind: KindFlag, Default: "off"},
		{Name: "buffer-limit", Kind: KindNumber, Default: "50", Min: 1, Max: 1 << 20},
		{Name: "command-alias", Kind: KindString, IsArray: true, Default: "", Separator: ","},
		{Name: "message-limit", Kind: KindNumber, Default: "1000", Min: 0, Max: 1 << 20},
		{Name: "repeat-time", Kind: KindNumber, Default: "500", Min: 0, Max: 1 << 16},
	}

	SessionTable = []*TableEntry{
		{Name: "status", Kind: KindFlag, Default: "on"},
		{Name: "status-interval", Kind: KindNumber, Default: "15", Min: 0, Max: 3600},
		{Name: "status-position", Kind: KindChoice, Default: "bottom", Choices: []string{"top", "bottom"}},
		{Name: "status-style", Kind: KindString, Default: ""},
		{Name: "base-index", Kind: KindNumber, Default: "0", Min: 0, Max: 1 << 16},
		{Name: "default-terminal", Kind: KindString, Default: "screen"},
		{Name: "prefix", Kind: KindKey, Default: "C-b"},
		{Name: "key-table", Kind: KindString, Default: "root"},
	}

	WindowTable = []*TableEntry{
		{Name: "automatic-rename", Kind: KindFlag, Default: "on"},
		{Name: "aggressive-resize", Kind: KindFlag, Default: "off"},
		{Name: "window-status-current-style", Kind: KindString, Default: ""},
		{Name: "monitor-activity", Kind: KindFlag, Default: "off"},
		{Name: "monitor-silence", Kind: KindNumber, Default: "0", Min: 0, Max: 3600},
		{Name: "synchronize-panes", Kind: KindFlag, Default: "off"},
		{Name: "pane-border-status", Kind: KindChoice, Default: "off", Choices: []string{"off", "top", "bottom"}},
	}

	PaneTable = []*TableEntry{
		{Name: "remain-on-exit", Kind: KindFlag, Default: "off"},
		{Name: "cursor-style", Kind: KindChoice, Default: "default", Choices: []string{"default", "block", "underline", "bar"}},
		{Name: "history-limit", Kind: KindNumber, Default: "2000", Min: 0, Max: 1 << 20},
		{Name: "word-separators", Kind: KindString, Default: " -_@"},
	}

	// Aliases maps legacy/alternate names to canonical ones (spec.md
	// §4.A name resolution).
	Aliases = map[string]string{
		"set-clipboard": "status", // placeholder-shape example alias, kept small on purpose
	}
)

// Scope identifies which tree level a command targets.
type Scope int

const (
	ScopeServer Scope = iota
	ScopeSession
	ScopeWindow
	ScopePane
)

// ScopeFlags mirrors the -s/-g/-w/-p command-line flags used to pick a
// scope (spec.md §4.A scope-from-flags).
type ScopeFlags struct {
	Server bool
	Global bool
	Window bool
	Pane   bool
}

// ScopeFromFlags resolves which Tree level a set of command flags
// targets. currentLevel is the scope implied by the command's default
// target (e.g. "set-option" with no target flag defaults to session).
func ScopeFromFlags(f ScopeFlags, currentLevel Scope) (Scope, error) {
	chosen := -1
	pick := func(s Scope) error {
		if chosen != -1 && Scope(chosen) != s {
			return fmt.Errorf("%w: ambiguous scope flags", ErrInvalidValue)
		}
		chosen = int(s)
		return nil
	}
	if f.Server {
		if err := pick(ScopeServer); err != nil {
			return 0, err
		}
	}
	if f.Global {
		if err := pick(currentLevel); err != nil {
			return 0, err
		}
	}
	if f.Window {
		if err := pick(ScopeWindow); err != nil {
			return 0, err
		}
	}
	if f.Pane {
		if err := pick(ScopePane); err != nil {
			return 0, err
		}
	}
	if chosen == -1 {
		return currentLevel, nil
	}
	return Scope(chosen), nil
}
