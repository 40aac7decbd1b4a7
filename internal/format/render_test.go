package format

import (
	"strings"
	"testing"

	"gomux/internal/screen"
)

func TestRenderScreenContainsHomeAndClear(t *testing.T) {
	s := screen.NewScreen(4, 2, 0)
	out := string(RenderScreen(s))
	if !strings.HasPrefix(out, "\033[2J\033[H") {
		t.Fatalf("expected leading clear+home, got %q", out)
	}
}

func TestRenderScreenEmitsCellRunes(t *testing.T) {
	s := screen.NewScreen(3, 1, 0)
	s.Grid.SetCell(0, 0, screen.Cell{Runes: []rune{'h'}, Width: 1, Charset: 'B'})
	s.Grid.SetCell(0, 1, screen.Cell{Runes: []rune{'i'}, Width: 1, Charset: 'B'})
	out := string(RenderScreen(s))
	if !strings.Contains(out, "hi") {
		t.Fatalf("expected rendered output to contain %q, got %q", "hi", out)
	}
}

func TestRenderScreenPositionsCursorAtEnd(t *testing.T) {
	s := screen.NewScreen(10, 5, 0)
	s.MoveTo(2, 3)
	out := string(RenderScreen(s))
	if !strings.HasSuffix(out, "\033[3;4H") {
		t.Fatalf("expected trailing cursor position escape, got %q", out)
	}
}

func TestRenderScreenCollapsesRepeatedStyle(t *testing.T) {
	s := screen.NewScreen(2, 1, 0)
	fg := screen.RGBColour(10, 20, 30)
	s.Grid.SetCell(0, 0, screen.Cell{Runes: []rune{'a'}, Width: 1, Fg: fg, Charset: 'B'})
	s.Grid.SetCell(0, 1, screen.Cell{Runes: []rune{'b'}, Width: 1, Fg: fg, Charset: 'B'})
	out := string(RenderScreen(s))
	if strings.Count(out, "38;2;10;20;30") != 1 {
		t.Fatalf("expected exactly one SGR run for identical styles, got %q", out)
	}
}
