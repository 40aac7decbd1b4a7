package langparse

import "testing"

func TestParseAndExecuteScenario(t *testing.T) {
	src := "new-session -d -s work\nset -g status off\n"
	p := NewParser(src, nil)
	lists, err := p.ParseScript()
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 command lists, got %d", len(lists))
	}
	if lists[0].Commands[0].Name != "new-session" {
		t.Fatalf("unexpected first command: %+v", lists[0].Commands[0])
	}
	if got := lists[0].Commands[0].Args; len(got) != 3 || got[0] != "-d" || got[1] != "-s" || got[2] != "work" {
		t.Fatalf("unexpected args: %v", got)
	}
	if lists[1].Commands[0].Name != "set" {
		t.Fatalf("unexpected second command: %+v", lists[1].Commands[0])
	}
}

func TestAliasExpansionScenario(t *testing.T) {
	table := Table{"ll": `list-sessions -F "#{session_name}"`}

	cl, err := ParseLine("ll")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	expanded, err := ExpandCommandList(table, cl, AliasFlags{})
	if err != nil {
		t.Fatalf("ExpandCommandList: %v", err)
	}
	if len(expanded.Commands) != 1 || expanded.Commands[0].Name != "list-sessions" {
		t.Fatalf("expected alias to expand to list-sessions, got %+v", expanded.Commands)
	}
	if len(expanded.Commands[0].Args) != 2 || expanded.Commands[0].Args[0] != "-F" {
		t.Fatalf("unexpected expanded args: %v", expanded.Commands[0].Args)
	}

	cl2, err := ParseLine("ll extra")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	expanded2, err := ExpandCommandList(table, cl2, AliasFlags{})
	if err != nil {
		t.Fatalf("ExpandCommandList: %v", err)
	}
	args := expanded2.Commands[0].Args
	if len(args) != 3 || args[2] != "extra" {
		t.Fatalf("expected extra arg appended, got %v", args)
	}
}

func TestNoAliasFlagDisablesExpansion(t *testing.T) {
	table := Table{"ll": "list-sessions"}
	cl, _ := ParseLine("ll")
	expanded, err := ExpandCommandList(table, cl, AliasFlags{NoAlias: true})
	if err != nil {
		t.Fatalf("ExpandCommandList: %v", err)
	}
	if expanded.Commands[0].Name != "ll" {
		t.Fatalf("expected alias not to fire, got %+v", expanded.Commands[0])
	}
}

func TestSemicolonChain(t *testing.T) {
	cl, err := ParseLine(`new-window ; select-window -t 0`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if len(cl.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cl.Commands))
	}
	if cl.Commands[1].Name != "select-window" {
		t.Fatalf("unexpected second command: %+v", cl.Commands[1])
	}
}

func TestOneGroupBrace(t *testing.T) {
	p := NewParser("{ new-window ; select-window -t 0 }\n", nil)
	lists, err := p.ParseScript()
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(lists) != 1 || !lists[0].OneGroup {
		t.Fatalf("expected a single ONEGROUP list, got %+v", lists)
	}
	if len(lists[0].Commands) != 2 {
		t.Fatalf("expected 2 grouped commands, got %d", len(lists[0].Commands))
	}
}

type stubEvaluator struct{ result bool }

func (s stubEvaluator) EvalCondition(expr string) (bool, error) { return s.result, nil }

func TestIfElseConditional(t *testing.T) {
	src := "%if #{truthy}\nset -g status on\n%else\nset -g status off\n%endif\n"

	p := NewParser(src, stubEvaluator{result: true})
	lists, err := p.ParseScript()
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(lists) != 1 || lists[0].Commands[0].Args[len(lists[0].Commands[0].Args)-1] != "on" {
		t.Fatalf("expected true branch only, got %+v", lists)
	}

	p2 := NewParser(src, stubEvaluator{result: false})
	lists2, err := p2.ParseScript()
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(lists2) != 1 || lists2[0].Commands[0].Args[len(lists2[0].Commands[0].Args)-1] != "off" {
		t.Fatalf("expected false branch only, got %+v", lists2)
	}
}

func TestFormatTokenBalancedBraces(t *testing.T) {
	cl, err := ParseLine(`display-message "#{?#{==:#{pane_id},%0},yes,no}"`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if len(cl.Commands) != 1 {
		t.Fatalf("expected 1 command, got %+v", cl.Commands)
	}
}

func TestTildeAndEnvExpansion(t *testing.T) {
	t.Setenv("GOMUX_TEST_VAR", "hello")
	cl, err := ParseLine("set -g some-dir $GOMUX_TEST_VAR")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	last := cl.Commands[0].Args[len(cl.Commands[0].Args)-1]
	if last != "hello" {
		t.Fatalf("expected env expansion, got %q", last)
	}
}

func TestSingleQuoteSuppressesExpansion(t *testing.T) {
	t.Setenv("GOMUX_TEST_VAR", "hello")
	cl, err := ParseLine(`set -g some-dir '$GOMUX_TEST_VAR'`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	last := cl.Commands[0].Args[len(cl.Commands[0].Args)-1]
	if last != "$GOMUX_TEST_VAR" {
		t.Fatalf("expected no expansion inside single quotes, got %q", last)
	}
}
