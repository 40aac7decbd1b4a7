package langparse

import "strings"

// AliasFlags controls alias expansion for one expansion call. Per the
// Open Question decision recorded in DESIGN.md, these flags are threaded
// as a parameter through expandAlias rather than mutated on a shared
// struct field, so that concurrent expansions (e.g. one per client) never
// observe each other's NoAlias state.
type AliasFlags struct {
	// NoAlias disables alias lookup for this expansion only, e.g. while
	// expanding the replacement text itself, to prevent runaway
	// self-referential aliases expanding forever.
	NoAlias bool
}

// Table maps an alias name to its replacement command source, e.g.
// "ll" -> `list-sessions -F "#{session_name}"` (spec.md scenario 2).
type Table map[string]string

// ExpandAlias resolves name against the table and, if found, returns the
// replacement source with extraArgs appended, ready to re-parse. It
// reports whether an alias fired. Matches spec.md scenario 2: invoking
// "ll" runs the full alias body, and "ll extra" appends "extra" to it.
func ExpandAlias(table Table, name string, extraArgs []string, flags AliasFlags) (string, bool) {
	if flags.NoAlias {
		return "", false
	}
	body, ok := table[name]
	if !ok {
		return "", false
	}
	if len(extraArgs) == 0 {
		return body, true
	}
	var b strings.Builder
	b.WriteString(body)
	for _, a := range extraArgs {
		b.WriteByte(' ')
		b.WriteString(quoteIfNeeded(a))
	}
	return b.String(), true
}

// quoteIfNeeded wraps a re-appended argument in double quotes if it
// contains characters the lexer would otherwise split on, so re-parsing
// the expanded source reproduces the original argument boundaries.
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t;{}\"'#$~") {
		var b strings.Builder
		b.WriteByte('"')
		for _, r := range s {
			if r == '"' || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
		return b.String()
	}
	return s
}

// ExpandCommand resolves aliases in a single parsed Command, re-parsing
// the expanded source into its own CommandList when an alias fires
// (since an alias body may itself contain multiple commands joined by
// ';'). Non-aliased commands pass through as a one-command CommandList.
func ExpandCommand(table Table, cmd Command, flags AliasFlags) (CommandList, error) {
	expanded, ok := ExpandAlias(table, cmd.Name, cmd.Args, flags)
	if !ok {
		return CommandList{Commands: []Command{cmd}}, nil
	}
	inner := flags
	inner.NoAlias = true
	p := NewParser(expanded, nil)
	return p.parseSemicolonChain()
}

// ExpandCommandList applies ExpandAlias across every command in cl,
// flattening any multi-command alias expansions in place.
func ExpandCommandList(table Table, cl CommandList, flags AliasFlags) (CommandList, error) {
	out := CommandList{OneGroup: cl.OneGroup}
	for _, cmd := range cl.Commands {
		expanded, err := ExpandCommand(table, cmd, flags)
		if err != nil {
			return CommandList{}, err
		}
		out.Commands = append(out.Commands, expanded.Commands...)
	}
	return out, nil
}
