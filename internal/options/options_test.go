package options

import "testing"

func newServerTree() *Tree {
	return NewTree(nil, ServerTable, Aliases)
}

func TestSetGetStringRoundTrip(t *testing.T) {
	root := newServerTree()
	sess := NewTree(root, SessionTable, Aliases)

	if err := sess.SetString("status-style", "fg=red", false); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	v, err := sess.Get("status-style")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.String != "fg=red" {
		t.Fatalf("round-trip mismatch: got %q", v.String)
	}
}

func TestParentFallthrough(t *testing.T) {
	root := newServerTree()
	child := NewTree(root, SessionTable, Aliases)

	if err := root.SetNumber("buffer-limit", 5); err != nil {
		t.Fatalf("SetNumber: %v", err)
	}
	// child has no override; root has no "buffer-limit" in SessionTable so
	// this checks fallthrough via the server table instead using a window.
	win := NewTree(child, WindowTable, Aliases)
	v, err := win.Get("automatic-rename")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !v.Flag {
		t.Fatalf("expected default automatic-rename=on, got %+v", v)
	}
}

func TestUnknownOption(t *testing.T) {
	root := newServerTree()
	if _, err := root.Get("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown option")
	}
}

func TestAmbiguousPrefix(t *testing.T) {
	root := newServerTree()
	// "exit-" matches both exit-empty and exit-unattached.
	if _, err := root.Get("exit-"); err == nil {
		t.Fatal("expected ambiguous error")
	}
}

func TestNumberRangeRejected(t *testing.T) {
	root := newServerTree()
	if err := root.SetNumber("buffer-limit", 0); err == nil {
		t.Fatal("expected range error for buffer-limit=0")
	}
}

func TestFlagToggle(t *testing.T) {
	root := newServerTree()
	if err := root.SetString("exit-empty", "off", false); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := root.SetString("exit-empty", "", false); err != nil {
		t.Fatalf("SetString toggle: %v", err)
	}
	v, _ := root.Get("exit-empty")
	if !v.Flag {
		t.Fatalf("expected toggle back to true, got %+v", v)
	}
}

func TestArrayAssignAndGet(t *testing.T) {
	root := newServerTree()
	if err := root.ArrayAssign("command-alias", "foo bar,baz"); err != nil {
		t.Fatalf("ArrayAssign: %v", err)
	}
	v0, err := root.ArrayGet("command-alias", 0)
	if err != nil {
		t.Fatalf("ArrayGet: %v", err)
	}
	if v0 != "foo bar" {
		t.Fatalf("expected index 0 = %q, got %q", "foo bar", v0)
	}
}

func TestArrayOnNonArrayRejected(t *testing.T) {
	root := newServerTree()
	if err := root.ArraySet("exit-empty", 0, "x", false); err == nil {
		t.Fatal("expected not-an-array error")
	}
}

func TestUserOptionBypassesTable(t *testing.T) {
	root := newServerTree()
	if err := root.SetString("@my-custom", "hello", false); err != nil {
		t.Fatalf("SetString on user option: %v", err)
	}
	v, err := root.Get("@my-custom")
	if err != nil {
		t.Fatalf("Get user option: %v", err)
	}
	if v.String != "hello" {
		t.Fatalf("unexpected value %q", v.String)
	}
}

func TestColourParsing(t *testing.T) {
	te := &TableEntry{Name: "c", Kind: KindColour}
	v, err := FromString(te, "#112233", false, Value{})
	if err != nil {
		t.Fatalf("hex colour: %v", err)
	}
	if v.String != "#112233" {
		t.Fatalf("unexpected normalized hex: %q", v.String)
	}
	if _, err := FromString(te, "colour999", false, Value{}); err == nil {
		t.Fatal("expected error for out-of-range colour index")
	}
}

func TestChoiceRejectsUnknown(t *testing.T) {
	te := &TableEntry{Name: "c", Kind: KindChoice, Choices: []string{"a", "b"}}
	if _, err := FromString(te, "z", false, Value{}); err == nil {
		t.Fatal("expected error for unknown choice")
	}
}

func TestPushActionDetection(t *testing.T) {
	root := newServerTree()
	sess := NewTree(root, SessionTable, Aliases)
	action, err := sess.SetStringPush("status", "off", false)
	if err != nil {
		t.Fatalf("SetStringPush: %v", err)
	}
	if action != PushStatus {
		t.Fatalf("expected PushStatus, got %v", action)
	}
}

func TestStrtonumRejectsGarbage(t *testing.T) {
	if _, err := parseNumber("12x", 0, 100); err == nil {
		t.Fatal("expected rejection of trailing garbage")
	}
	if _, err := parseNumber(" 12", 0, 100); err != nil {
		t.Fatalf("expected whitespace-trimmed parse to succeed: %v", err)
	}
}
