package screen

import (
	"bytes"
	"strconv"
)

// decSpecialGraphics maps the DEC special-graphics (VT100 "0" charset)
// code points used for box drawing onto their Unicode equivalents
// (spec.md §4.G "box drawing" operation).
var decSpecialGraphics = map[rune]rune{
	'j': '┘', 'k': '┐', 'l': '┌', 'm': '└', 'n': '┼',
	'q': '─', 't': '├', 'u': '┤', 'v': '┴', 'w': '┬', 'x': '│',
	'a': '▒', '`': '◆', 'f': '°', 'g': '±', '~': '·', '_': ' ',
	'o': '⎺', 'p': '⎻', 'r': '⎼', 's': '⎽',
}

// Sink adapts a Screen to vtparse.Sink, translating the parser's events
// into the operations of spec.md §4.G. It owns one WriteContext so runs
// of printed characters batch correctly across Print calls.
type Sink struct {
	wc *WriteContext

	dcsActive bool
	dcsParams []int
	dcsFinal  byte
	dcsBuf    []byte

	onTitle        func(string)
	onUnhandledOSC func(data []byte)
	onPassthrough  func(final byte, data []byte)
}

// NewSink creates a sink writing through wc.
func NewSink(wc *WriteContext) *Sink { return &Sink{wc: wc} }

// OnTitle registers a callback invoked whenever the pane's title changes
// (ESC k ... ST rename, or OSC 0/1/2).
func (sk *Sink) OnTitle(fn func(string)) { sk.onTitle = fn }

// OnUnhandledOSC registers a callback for OSC sequences the sink itself
// doesn't interpret (OSC 10/11 colour queries, answered by whatever owns
// the pane's PTY, not by the screen model).
func (sk *Sink) OnUnhandledOSC(fn func(data []byte)) { sk.onUnhandledOSC = fn }

// OnPassthrough registers a callback for DCS sequences the sink does not
// interpret as a SIXEL image (spec.md §4.G "raw string emission for
// pass-through").
func (sk *Sink) OnPassthrough(fn func(final byte, data []byte)) { sk.onPassthrough = fn }

func (sk *Sink) Print(r rune) {
	s := sk.wc.Screen
	if s.CurrentCharset() == '0' {
		if mapped, ok := decSpecialGraphics[r]; ok {
			r = mapped
		}
	}
	sk.wc.PutChar(r)
}

func (sk *Sink) Execute(b byte) {
	s := sk.wc.Screen
	switch b {
	case '\r':
		sk.wc.Move(s.CarriageReturn)
	case '\n', '\v', '\f':
		sk.wc.Move(s.LineFeed)
	case '\t':
		sk.wc.Move(s.TabForward)
	case 0x08: // BS
		sk.wc.Move(func() { s.MoveRel(0, -1) })
	}
}

func (sk *Sink) ESCDispatch(intermediates []byte, final byte) {
	s := sk.wc.Screen
	if len(intermediates) == 1 && (intermediates[0] == '(' || intermediates[0] == ')') {
		sk.wc.StyleChange(func() { s.SetCharset(final) })
		return
	}
	switch final {
	case '7':
		s.SaveCursor()
	case '8':
		s.RestoreCursor()
	case 'D':
		sk.wc.Move(s.LineFeed)
	case 'M':
		sk.wc.Move(s.ReverseIndex)
	case 'E':
		sk.wc.Move(func() { s.CarriageReturn(); s.LineFeed() })
	case 'c':
		s.FullReset()
	}
}

func paramOr(params []int, idx, def int) int {
	if idx >= len(params) || params[idx] < 0 {
		return def
	}
	return params[idx]
}

func (sk *Sink) CSIDispatch(params []int, subParam []bool, intermediates []byte, private byte, final byte) {
	s := sk.wc.Screen
	n := paramOr(params, 0, 1)
	if n <= 0 {
		n = 1
	}

	switch final {
	case 'A':
		sk.wc.Move(func() { s.MoveRel(-n, 0) })
	case 'B':
		sk.wc.Move(func() { s.MoveRel(n, 0) })
	case 'C':
		sk.wc.Move(func() { s.MoveRel(0, n) })
	case 'D':
		sk.wc.Move(func() { s.MoveRel(0, -n) })
	case 'E':
		sk.wc.Move(func() { s.MoveRel(n, 0); s.CarriageReturn() })
	case 'F':
		sk.wc.Move(func() { s.MoveRel(-n, 0); s.CarriageReturn() })
	case 'G', '`':
		sk.wc.Move(func() { s.MoveTo(s.CursorRow, n-1) })
	case 'd':
		sk.wc.Move(func() { s.MoveTo(n-1, s.CursorCol) })
	case 'H', 'f':
		row := paramOr(params, 0, 1) - 1
		col := paramOr(params, 1, 1) - 1
		sk.wc.Move(func() { s.MoveTo(row, col) })
	case 'J':
		sk.eraseDisplay(paramOr(params, 0, 0))
	case 'K':
		sk.eraseLine(paramOr(params, 0, 0))
	case 'L':
		sk.wc.Move(func() { s.Grid.InsertLines(s.CursorRow, s.ScrollTop, s.ScrollBottom, n) })
	case 'M':
		sk.wc.Move(func() { s.Grid.DeleteLines(s.CursorRow, s.ScrollTop, s.ScrollBottom, n) })
	case 'P':
		sk.wc.Move(func() { s.Grid.DeleteChars(s.CursorRow, s.CursorCol, n) })
	case '@':
		sk.wc.Move(func() { s.Grid.InsertChars(s.CursorRow, s.CursorCol, n) })
	case 'X':
		sk.wc.Move(func() {
			end := s.CursorCol + n - 1
			s.Grid.ClearRegion(s.CursorRow, s.CursorCol, s.CursorRow, end)
		})
	case 'S':
		sk.wc.Move(func() {
			for i := 0; i < n; i++ {
				s.Grid.ScrollUp(s.ScrollTop, s.ScrollBottom)
			}
		})
	case 'T':
		sk.wc.Move(func() {
			for i := 0; i < n; i++ {
				s.Grid.ScrollDown(s.ScrollTop, s.ScrollBottom)
			}
		})
	case 'r':
		top := paramOr(params, 0, 1) - 1
		bottom := paramOr(params, 1, s.Grid.Rows) - 1
		sk.wc.Move(func() { s.SetScrollRegion(top, bottom); s.MoveTo(0, 0) })
	case 'm':
		sk.wc.StyleChange(func() { sk.applySGR(params, subParam) })
	case 'h':
		sk.setModes(params, private, true)
	case 'l':
		sk.setModes(params, private, false)
	case 's':
		if private == 0 {
			s.SaveCursor()
		}
	case 'u':
		if private == 0 {
			s.RestoreCursor()
		}
	case 't':
		switch paramOr(params, 0, 0) {
		case 22:
			s.PushTitle()
		case 23:
			s.PopTitle()
		}
	}
}

func (sk *Sink) eraseDisplay(mode int) {
	s := sk.wc.Screen
	sk.wc.Move(func() {
		switch mode {
		case 0:
			s.Grid.ClearRegion(s.CursorRow, s.CursorCol, s.Grid.Rows-1, s.Grid.Cols-1)
		case 1:
			s.Grid.ClearRegion(0, 0, s.CursorRow, s.CursorCol)
		case 2, 3:
			s.Grid.ClearRegion(0, 0, s.Grid.Rows-1, s.Grid.Cols-1)
		}
	})
}

func (sk *Sink) eraseLine(mode int) {
	s := sk.wc.Screen
	sk.wc.Move(func() {
		switch mode {
		case 0:
			s.Grid.ClearRegion(s.CursorRow, s.CursorCol, s.CursorRow, s.Grid.Cols-1)
		case 1:
			s.Grid.ClearRegion(s.CursorRow, 0, s.CursorRow, s.CursorCol)
		case 2:
			s.Grid.ClearRegion(s.CursorRow, 0, s.CursorRow, s.Grid.Cols-1)
		}
	})
}

// setModes handles SM/RM (final 'h'/'l'), including the DEC-private
// ('?'-prefixed) mode set spec.md §4.G groups under alternate-screen
// push/pop, cursor visibility, and mouse/bracketed-paste reporting.
func (sk *Sink) setModes(params []int, private byte, on bool) {
	s := sk.wc.Screen
	for _, p := range params {
		if private == '?' {
			switch p {
			case 1:
				setMode(s, ModeApplicationCursor, on)
			case 6:
				setMode(s, ModeOriginDEC, on)
			case 7:
				setMode(s, ModeAutoWrap, on)
			case 25:
				setMode(s, ModeCursorVisible, on)
			case 1000, 1002, 1003:
				setMode(s, ModeMouseButton, on)
			case 1006:
				setMode(s, ModeMouseSGR, on)
			case 2004:
				setMode(s, ModeBracketedPaste, on)
			case 47, 1047:
				if on {
					s.PushAltScreen()
				} else {
					s.PopAltScreen()
				}
			case 1049:
				if on {
					s.SaveCursor()
					s.PushAltScreen()
				} else {
					s.PopAltScreen()
					s.RestoreCursor()
				}
			}
			continue
		}
		switch p {
		case 4:
			setMode(s, ModeInsert, on)
		}
	}
}

func setMode(s *Screen, m Mode, on bool) {
	s.mu.Lock()
	if on {
		s.Modes |= m
	} else {
		s.Modes &^= m
	}
	s.mu.Unlock()
}

// OSCDispatch handles window-title (Ps 0/1/2), hyperlink (Ps 8), and
// hands anything else (e.g. the Ps 10/11 colour queries) to the
// registered unhandled-OSC callback.
func (sk *Sink) OSCDispatch(data []byte) {
	ps, rest, ok := splitOSC(data)
	if !ok {
		if sk.onUnhandledOSC != nil {
			sk.onUnhandledOSC(data)
		}
		return
	}
	switch ps {
	case 0, 1, 2:
		sk.setTitle(string(rest))
	case 8:
		sk.dispatchHyperlink(rest)
	default:
		if sk.onUnhandledOSC != nil {
			sk.onUnhandledOSC(data)
		}
	}
}

func splitOSC(data []byte) (int, []byte, bool) {
	idx := bytes.IndexByte(data, ';')
	if idx < 0 {
		n, err := strconv.Atoi(string(data))
		if err != nil {
			return 0, nil, false
		}
		return n, nil, true
	}
	n, err := strconv.Atoi(string(data[:idx]))
	if err != nil {
		return 0, nil, false
	}
	return n, data[idx+1:], true
}

func (sk *Sink) setTitle(title string) {
	s := sk.wc.Screen
	s.mu.Lock()
	s.Title = title
	s.mu.Unlock()
	if sk.onTitle != nil {
		sk.onTitle(title)
	}
}

// dispatchHyperlink parses OSC 8 ; params ; uri (params may contain
// "id=..." among ':'-separated key=value pairs).
func (sk *Sink) dispatchHyperlink(rest []byte) {
	parts := bytes.SplitN(rest, []byte(";"), 2)
	if len(parts) != 2 {
		return
	}
	id := ""
	for _, kv := range bytes.Split(parts[0], []byte(":")) {
		if bytes.HasPrefix(kv, []byte("id=")) {
			id = string(kv[3:])
		}
	}
	uri := string(parts[1])
	s := sk.wc.Screen
	if uri == "" {
		s.SetHyperlink(0)
		return
	}
	s.SetHyperlink(s.Hyperlinks.Intern(id, uri))
}

// APCDispatch is reserved for application-control-function payloads
// (e.g. image protocols) outside spec.md's scope; data is dropped.
func (sk *Sink) APCDispatch(data []byte) {}

// RenameDispatch implements the single-line "ESC k ... ST" rename
// escape (spec.md §4.F), distinct from OSC 0/1/2 window-title setting
// but folded into the same title-change notification.
func (sk *Sink) RenameDispatch(data []byte) {
	sk.setTitle(string(data))
}

func (sk *Sink) DCSHook(params []int, intermediates []byte, final byte) {
	sk.dcsActive = true
	sk.dcsParams = append([]int(nil), params...)
	sk.dcsFinal = final
	sk.dcsBuf = sk.dcsBuf[:0]
}

func (sk *Sink) DCSPut(b byte) {
	if sk.dcsActive {
		sk.dcsBuf = append(sk.dcsBuf, b)
	}
}

func (sk *Sink) DCSUnhook() {
	if !sk.dcsActive {
		return
	}
	sk.dcsActive = false
	if sk.dcsFinal == 'q' {
		s := sk.wc.Screen
		id := s.AttachImage(append([]byte(nil), sk.dcsBuf...))
		sk.wc.Move(func() {
			cell := s.currentCell(' ', 1)
			cell.Image = id
			s.Grid.SetCell(s.CursorRow, s.CursorCol, cell)
		})
		return
	}
	if sk.onPassthrough != nil {
		sk.onPassthrough(sk.dcsFinal, append([]byte(nil), sk.dcsBuf...))
	}
}
