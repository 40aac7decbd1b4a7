package screen

import (
	"testing"
	"time"

	"gomux/internal/vtparse"
)

// TestSGRThroughRealParser wires a real vtparse.Parser to a real Sink and
// WriteContext (the same chain internal/mux/pane.go builds for a live
// pane) and feeds the literal CSI sequence from spec.md §8 scenario 4,
// rather than calling Grid.SetCell or applySGR directly: this is the path
// that actually runs in production, and format/render_test.go's direct
// SetCell calls never touch applySGR at all.
func TestSGRThroughRealParser(t *testing.T) {
	scr := NewScreen(10, 5, 0)
	wc := NewWriteContext(scr, "client", nil)
	sink := NewSink(wc)
	p := vtparse.New(sink)

	p.Feed([]byte("\x1b[38;2;10;20;30mX"), time.Now())
	wc.Stop()

	row, col := scr.Cursor()
	if col != 1 {
		t.Fatalf("expected cursor to advance past the written cell, got row=%d col=%d", row, col)
	}

	cell := scr.Grid.Cell(row, 0)
	if len(cell.Runes) != 1 || cell.Runes[0] != 'X' {
		t.Fatalf("expected cell to hold 'X', got %+v", cell.Runes)
	}
	if cell.Fg.Mode != ColourRGB || cell.Fg.R != 10 || cell.Fg.G != 20 || cell.Fg.B != 30 {
		t.Fatalf("expected fg RGB(10,20,30), got %+v", cell.Fg)
	}
}

// TestSGRColonFormThroughRealParser exercises the same production chain
// for the colon sub-parameter wire form (tmux-rs's
// input_csi_dispatch_sgr_colon), which applySGRColonGroup implements.
func TestSGRColonFormThroughRealParser(t *testing.T) {
	scr := NewScreen(10, 5, 0)
	wc := NewWriteContext(scr, "client", nil)
	sink := NewSink(wc)
	p := vtparse.New(sink)

	p.Feed([]byte("\x1b[38:2::10:20:30mX"), time.Now())
	wc.Stop()

	row, _ := scr.Cursor()
	cell := scr.Grid.Cell(row, 0)
	if len(cell.Runes) != 1 || cell.Runes[0] != 'X' {
		t.Fatalf("expected cell to hold 'X', got %+v", cell.Runes)
	}
	if cell.Fg.Mode != ColourRGB || cell.Fg.R != 10 || cell.Fg.G != 20 || cell.Fg.B != 30 {
		t.Fatalf("expected fg RGB(10,20,30) via colon form, got %+v", cell.Fg)
	}
}
