package keytable

// DefaultBinding is one entry of the static list of default-binding lines
// fed through the command parser at server start (spec.md §4.C
// "key-bindings-init installs a long static list of default bindings by
// feeding each source line through the command parser"). Each entry is
// (key-name, command source); the caller parses the command source with
// internal/langparse before calling Table.Bind, since the key engine
// itself must not depend on the parser package (bootstrap ordering: D
// before C is usable, per spec.md §9 "Parser bootstrap").
type DefaultBinding struct {
	Key     string
	Command string
	Repeat  bool
	Note    string
}

// DefaultRootBindings mirrors tmux's root-table default bindings, trimmed
// to the builtins this implementation actually ships.
var DefaultRootBindings = []DefaultBinding{
	{Key: "C-b", Command: "send-prefix"},
}

// DefaultPrefixBindings mirrors tmux's prefix-table default bindings.
var DefaultPrefixBindings = []DefaultBinding{
	{Key: "c", Command: `new-window`},
	{Key: "n", Command: `next-window`, Repeat: true},
	{Key: "p", Command: `previous-window`, Repeat: true},
	{Key: "\"", Command: `split-window`},
	{Key: "%", Command: `split-window -h`},
	{Key: "o", Command: `select-pane -t :.+`, Repeat: true},
	{Key: "x", Command: `confirm-before -p "kill-pane #P? (y/n)" kill-pane`},
	{Key: "d", Command: `detach-client`},
	{Key: "[", Command: `copy-mode`},
	{Key: "]", Command: `paste-buffer`},
	{Key: ":", Command: `command-prompt`},
	{Key: "C-b", Command: `send-prefix`},
}
