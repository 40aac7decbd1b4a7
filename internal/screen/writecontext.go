package screen

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// DirtyFunc is notified once per flushed run (spec.md §4.G: "Flushing
// emits grid mutations and optional dirty-region tracking for the
// renderer"). row/colFrom/colTo are visible-grid coordinates, inclusive.
type DirtyFunc func(row, colFrom, colTo int)

type runStyle struct {
	Fg, Bg, Underline Colour
	Attrs             Attr
	Hyperlink         uint32
}

// WriteContext serializes modifications to a target Screen: it carries
// the screen, an optional client id output is destined for, and a
// batching collector that groups a run of "put character, advance"
// operations sharing one style so the renderer gets one dirty-region
// notification per run instead of one per cell (spec.md §4.G).
type WriteContext struct {
	Screen *Screen
	Client string
	Dirty  DirtyFunc

	active  bool
	row     int
	colFrom int
	colTo   int
	key     runStyle

	lastRune rune
	hasLast  bool
}

// NewWriteContext creates a write context over screen. client is the
// attached client id this output stream is destined for, or "" when
// writing on behalf of no particular client (e.g. a pane with none
// attached yet still must advance its base screen).
func NewWriteContext(s *Screen, client string, dirty DirtyFunc) *WriteContext {
	return &WriteContext{Screen: s, Client: client, Dirty: dirty}
}

func (wc *WriteContext) currentKey() runStyle {
	st := wc.Screen.style
	return runStyle{Fg: st.Fg, Bg: st.Bg, Underline: st.Underline, Attrs: st.Attrs, Hyperlink: st.Hyperlink}
}

// flush emits the pending run's dirty notification and clears it.
func (wc *WriteContext) flush() {
	if wc.active && wc.Dirty != nil {
		wc.Dirty(wc.row, wc.colFrom, wc.colTo)
	}
	wc.active = false
}

// Stop flushes any pending run without performing a motion (spec.md
// §4.G "an explicit stop").
func (wc *WriteContext) Stop() { wc.flush() }

// Move flushes the pending run, then calls fn to perform a cursor
// motion operation (spec.md §4.G: "the batch flushes whenever a cursor
// motion ... occurs").
func (wc *WriteContext) Move(fn func()) {
	wc.flush()
	fn()
}

// StyleChange flushes the pending run, then calls fn to apply the style
// change (spec.md §4.G: "... a style change ... occurs").
func (wc *WriteContext) StyleChange(fn func()) {
	wc.flush()
	fn()
}

// width reports the display width of r using the pack's grapheme-aware
// width decision (go-runewidth, backed by uniseg's east-asian tables).
func width(r rune) int {
	return runewidth.RuneWidth(r)
}

// extendsCluster reports whether appending next onto prev keeps both
// runes inside a single grapheme cluster, per uniseg's segmentation
// rules (e.g. a combining accent onto its base letter). Used instead of
// go-runewidth's zero-width heuristic alone, since not every
// cluster-extending rune reports width 0 (e.g. variation selectors).
func extendsCluster(prev, next rune) bool {
	joined := string(prev) + string(next)
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(joined, -1)
	return cluster == joined
}

// PutChar writes one printable rune at the cursor, advancing it (with
// DECAWM auto-wrap) and folding the write into the active run if the
// style and row are unchanged from the previous PutChar call.
func (wc *WriteContext) PutChar(r rune) {
	s := wc.Screen

	if wc.hasLast && extendsCluster(wc.lastRune, r) {
		// Combining mark: merge onto the previous cell's grapheme
		// rather than advancing (spec.md §3 Grid: "UTF-8 combining-
		// capable" cells).
		s.mu.Lock()
		col := s.CursorCol - 1
		if col < 0 {
			col = 0
		}
		cell := s.Grid.Cell(s.CursorRow, col)
		cell.Runes = append(cell.Runes, r)
		s.Grid.SetCell(s.CursorRow, col, cell)
		s.mu.Unlock()
		return
	}
	wc.lastRune = r
	wc.hasLast = true

	s.mu.Lock()
	w := width(r)
	if w == 0 {
		w = 1
	}

	if s.Modes&ModeInsert != 0 {
		s.Grid.InsertChars(s.CursorRow, s.CursorCol, w)
	}

	if s.CursorCol+w > s.Grid.Cols {
		s.mu.Unlock()
		wc.wrapLine()
		s.mu.Lock()
	}

	key := runStyle{Fg: s.style.Fg, Bg: s.style.Bg, Underline: s.style.Underline, Attrs: s.style.Attrs, Hyperlink: s.style.Hyperlink}
	row := s.CursorRow
	col := s.CursorCol

	cell := s.currentCell(r, w)
	s.Grid.SetCell(row, col, cell)
	for i := 1; i < w; i++ {
		if col+i < s.Grid.Cols {
			s.Grid.SetCell(row, col+i, Cell{Width: 0})
		}
	}
	s.Hyperlinks.Ref(s.style.Hyperlink)

	s.CursorCol += w
	if s.CursorCol > s.Grid.Cols {
		s.CursorCol = s.Grid.Cols
	}
	s.mu.Unlock()

	if wc.active && (key != wc.key || row != wc.row || col != wc.colTo+1) {
		wc.flush()
	}
	if !wc.active {
		wc.active = true
		wc.key = key
		wc.row = row
		wc.colFrom = col
	}
	wc.colTo = col + w - 1
}

// wrapLine marks the current line wrapped and advances to the next row,
// scrolling if needed, per DECAWM. With auto-wrap off it instead clamps
// the cursor to the last column and does not wrap.
func (wc *WriteContext) wrapLine() {
	s := wc.Screen
	if s.Modes&ModeAutoWrap == 0 {
		s.mu.Lock()
		if s.CursorCol > 0 {
			s.CursorCol = s.Grid.Cols - 1
		}
		s.mu.Unlock()
		return
	}
	wc.flush()
	s.Grid.MarkWrapped(s.CursorRow)
	s.CarriageReturn()
	s.LineFeed()
}
