package screen

import "sync"

// Mode is the screen-local mode bitset (spec.md §3 Screen: "mode
// bitset").
type Mode uint32

const (
	ModeOriginDEC        Mode = 1 << iota // DECOM: cursor addressing relative to scroll region
	ModeAutoWrap                          // DECAWM
	ModeInsert                            // IRM
	ModeCursorVisible
	ModeApplicationCursor // DECCKM
	ModeApplicationKeypad
	ModeMouseX10
	ModeMouseButton
	ModeMouseAny
	ModeMouseSGR
	ModeBracketedPaste
	ModeAltScreen
)

// Selection is a pane's copy-mode text selection (spec.md §3 Screen:
// "optional selection").
type Selection struct {
	Active      bool
	Rectangular bool
	StartRow    int
	StartCol    int
	EndRow      int
	EndCol      int
}

type altState struct {
	base      *Grid
	cursorRow int
	cursorCol int
}

// Screen is a view over a Grid with cursor, scroll region, modes, title
// stack, tab stops, selection, and style palette (spec.md §3 Screen).
// Grounded on the teacher's virtualterminal.VT cursor/resize fields,
// generalized from "one midterm.Terminal" to "grid plus explicit cursor
// and mode state gomux owns directly".
type Screen struct {
	mu sync.Mutex

	Grid       *Grid
	Hyperlinks *HyperlinkTable
	Images     map[uint32][]byte
	nextImage  uint32

	CursorRow, CursorCol int
	savedRow, savedCol   int
	savedStyle           styleState

	ScrollTop, ScrollBottom int // inclusive, visible-row indices

	Modes Mode

	Title      string
	TitleStack []string

	TabStops []bool

	Selection *Selection

	style styleState

	alt *altState
}

// styleState is the pen currently applied to newly printed characters.
type styleState struct {
	Fg, Bg, Underline Colour
	Attrs             Attr
	Charset           byte
	Hyperlink         uint32
}

// NewScreen creates a screen with a fresh base grid, default tab stops
// every 8 columns, and default modes (auto-wrap and cursor visible on,
// matching a freshly spawned terminal).
func NewScreen(cols, rows, historyLimit int) *Screen {
	s := &Screen{
		Grid:           NewGrid(cols, rows, historyLimit),
		Hyperlinks:     NewHyperlinkTable(),
		Images:         make(map[uint32][]byte),
		ScrollTop:      0,
		ScrollBottom:   rows - 1,
		Modes:          ModeAutoWrap | ModeCursorVisible,
		style:          styleState{Charset: 'B'},
		TabStops:       defaultTabStops(cols),
	}
	return s
}

func defaultTabStops(cols int) []bool {
	stops := make([]bool, cols)
	for i := 0; i < cols; i += 8 {
		stops[i] = true
	}
	return stops
}

// AttachImage stores an opaque SIXEL payload and returns a handle to
// reference from a cell (spec.md §4.G: "SIXEL image attachment (opaque
// payload handed to an external image store)").
func (s *Screen) AttachImage(data []byte) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextImage++
	id := s.nextImage
	s.Images[id] = data
	return id
}

// SetStyle updates the pen used for subsequently printed characters.
func (s *Screen) SetStyle(fn func(*styleState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.style)
}

func (s *Screen) currentCell(r rune, width int) Cell {
	return Cell{
		Runes:     []rune{r},
		Width:     width,
		Fg:        s.style.Fg,
		Bg:        s.style.Bg,
		Underline: s.style.Underline,
		Attrs:     s.style.Attrs,
		Hyperlink: s.style.Hyperlink,
		Charset:   s.style.Charset,
	}
}

// ResetStyle clears the pen to defaults (SGR 0).
func (s *Screen) ResetStyle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = styleState{Charset: s.style.Charset}
}

func (s *Screen) SetFg(c Colour) { s.mu.Lock(); s.style.Fg = c; s.mu.Unlock() }

func (s *Screen) SetBg(c Colour) { s.mu.Lock(); s.style.Bg = c; s.mu.Unlock() }

func (s *Screen) SetUnderlineColour(c Colour) { s.mu.Lock(); s.style.Underline = c; s.mu.Unlock() }

func (s *Screen) SetAttr(a Attr, on bool) {
	s.mu.Lock()
	if on {
		s.style.Attrs |= a
	} else {
		s.style.Attrs &^= a
	}
	s.mu.Unlock()
}

func (s *Screen) SetCharset(cs byte) { s.mu.Lock(); s.style.Charset = cs; s.mu.Unlock() }

func (s *Screen) SetHyperlink(id uint32) { s.mu.Lock(); s.style.Hyperlink = id; s.mu.Unlock() }

// CurrentCharset reports the charset currently selected into G0 ('B'
// ASCII, '0' DEC special graphics).
func (s *Screen) CurrentCharset() byte { s.mu.Lock(); defer s.mu.Unlock(); return s.style.Charset }

// FullReset restores default modes and pen state (ESC c / RIS).
func (s *Screen) FullReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = styleState{Charset: 'B'}
	s.Modes = ModeAutoWrap | ModeCursorVisible
	s.CursorRow, s.CursorCol = 0, 0
	s.ScrollTop, s.ScrollBottom = 0, s.Grid.Rows-1
	s.TabStops = defaultTabStops(s.Grid.Cols)
	s.Title = ""
	s.TitleStack = nil
}

// Resize adjusts the active grid's dimensions and clamps cursor/region
// state to stay in bounds.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Grid.Resize(cols, rows)
	if len(s.TabStops) != cols {
		s.TabStops = defaultTabStops(cols)
	}
	if s.CursorRow >= rows {
		s.CursorRow = rows - 1
	}
	if s.CursorCol >= cols {
		s.CursorCol = cols - 1
	}
	s.ScrollBottom = rows - 1
	if s.ScrollTop > s.ScrollBottom {
		s.ScrollTop = 0
	}
}

// SetScrollRegion sets the DECSTBM scroll region (0-based, inclusive).
// An invalid region (top>=bottom) resets to the full screen.
func (s *Screen) SetScrollRegion(top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if top < 0 {
		top = 0
	}
	if bottom >= s.Grid.Rows || bottom < 0 {
		bottom = s.Grid.Rows - 1
	}
	if top >= bottom {
		top, bottom = 0, s.Grid.Rows-1
	}
	s.ScrollTop, s.ScrollBottom = top, bottom
}

// clampRow applies DECOM: row is relative to the scroll region when
// origin mode is set, else relative to the whole screen. Caller holds
// s.mu.
func (s *Screen) clampRow(row int) int {
	top, bottom := 0, s.Grid.Rows-1
	if s.Modes&ModeOriginDEC != 0 {
		top, bottom = s.ScrollTop, s.ScrollBottom
		row += top
	}
	if row < top {
		row = top
	}
	if row > bottom {
		row = bottom
	}
	return row
}

// MoveTo positions the cursor, applying origin-mode relative addressing
// and column clamping (spec.md §4.G: "cursor motion (with clamp/wrap
// rules respecting the DEC origin mode and the scroll region)").
func (s *Screen) MoveTo(row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CursorRow = s.clampRow(row)
	if col < 0 {
		col = 0
	}
	if col >= s.Grid.Cols {
		col = s.Grid.Cols - 1
	}
	s.CursorCol = col
}

// MoveRel moves the cursor by (dr, dc), clamped to the screen bounds
// (not the scroll region, matching CUU/CUD/CUF/CUB semantics).
func (s *Screen) MoveRel(dr, dc int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.CursorRow + dr
	if row < 0 {
		row = 0
	}
	if row >= s.Grid.Rows {
		row = s.Grid.Rows - 1
	}
	col := s.CursorCol + dc
	if col < 0 {
		col = 0
	}
	if col >= s.Grid.Cols {
		col = s.Grid.Cols - 1
	}
	s.CursorRow, s.CursorCol = row, col
}

// CarriageReturn moves the cursor to column 0 of the current row.
func (s *Screen) CarriageReturn() {
	s.mu.Lock()
	s.CursorCol = 0
	s.mu.Unlock()
}

// LineFeed advances the cursor one row, scrolling the region if already
// at ScrollBottom (spec.md §4.G: "line feed with scroll").
func (s *Screen) LineFeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CursorRow == s.ScrollBottom {
		s.Grid.ScrollUp(s.ScrollTop, s.ScrollBottom)
		return
	}
	if s.CursorRow < s.Grid.Rows-1 {
		s.CursorRow++
	}
}

// ReverseIndex moves the cursor one row up, scrolling the region down if
// already at ScrollTop.
func (s *Screen) ReverseIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CursorRow == s.ScrollTop {
		s.Grid.ScrollDown(s.ScrollTop, s.ScrollBottom)
		return
	}
	if s.CursorRow > 0 {
		s.CursorRow--
	}
}

// TabForward advances the cursor to the next tab stop, or the last
// column if none remain.
func (s *Screen) TabForward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := s.CursorCol + 1; c < len(s.TabStops); c++ {
		if s.TabStops[c] {
			s.CursorCol = c
			return
		}
	}
	s.CursorCol = s.Grid.Cols - 1
}

// TabBackward moves the cursor to the previous tab stop, or column 0.
func (s *Screen) TabBackward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := s.CursorCol - 1; c >= 0; c-- {
		if s.TabStops[c] {
			s.CursorCol = c
			return
		}
	}
	s.CursorCol = 0
}

// SaveCursor implements DECSC: save cursor position and pen.
func (s *Screen) SaveCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedRow, s.savedCol = s.CursorRow, s.CursorCol
	s.savedStyle = s.style
}

// RestoreCursor implements DECRC.
func (s *Screen) RestoreCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CursorRow, s.CursorCol = s.savedRow, s.savedCol
	s.style = s.savedStyle
}

// PushTitle implements XTWINOPS 22: push Title onto TitleStack.
func (s *Screen) PushTitle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TitleStack = append(s.TitleStack, s.Title)
}

// PopTitle implements XTWINOPS 23.
func (s *Screen) PopTitle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.TitleStack); n > 0 {
		s.Title = s.TitleStack[n-1]
		s.TitleStack = s.TitleStack[:n-1]
	}
}

// PushAltScreen swaps in a fresh, history-less grid (spec.md §4.G:
// "alternate-screen push/pop (preserving saved cursor/cell)"), a no-op
// if already on the alt screen.
func (s *Screen) PushAltScreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alt != nil {
		return
	}
	s.alt = &altState{base: s.Grid, cursorRow: s.CursorRow, cursorCol: s.CursorCol}
	s.Grid = NewGrid(s.alt.base.Cols, s.alt.base.Rows, 0)
	s.CursorRow, s.CursorCol = 0, 0
	s.Modes |= ModeAltScreen
}

// PopAltScreen restores the base grid and the cursor saved at push time.
func (s *Screen) PopAltScreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alt == nil {
		return
	}
	s.Grid = s.alt.base
	s.CursorRow, s.CursorCol = s.alt.cursorRow, s.alt.cursorCol
	s.alt = nil
	s.Modes &^= ModeAltScreen
}

// OnAltScreen reports whether the alternate screen is currently active.
func (s *Screen) OnAltScreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alt != nil
}

// Cursor reports the cursor's current visible-grid position, for
// callers outside the package (internal/format's renderer) that need a
// consistent read without reaching into unexported state.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CursorRow, s.CursorCol
}
