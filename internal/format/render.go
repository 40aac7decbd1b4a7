package format

import (
	"fmt"
	"strconv"
	"strings"

	"gomux/internal/screen"
)

// RenderScreen draws s's full visible grid as one self-contained ANSI
// payload: home+clear, then each row's cells with SGR runs collapsed
// wherever consecutive cells share a style, ending with the cursor
// positioned where the screen says it is. This is the "periodically
// renders pane grids to its TTY" leg of spec.md §4.K/§4.I; gomux always
// redraws the whole pane rather than tracking a dirty-region diff,
// since spec.md's Non-goals disclaim "a renderer" in the terminal-
// emulator-library sense and a full redraw is the simplest thing that
// keeps every attached client's TTY in sync.
func RenderScreen(s *screen.Screen) []byte {
	var b strings.Builder
	b.WriteString("\033[2J\033[H")

	_, rows := s.Grid.Dims()
	var cur styleKey
	started := false
	for row := 0; row < rows; row++ {
		if row > 0 {
			b.WriteString("\r\n")
		}
		line := s.Grid.ViewLine(row)
		for _, c := range line {
			if c.Width == 0 {
				continue
			}
			k := keyOf(c)
			if !started || k != cur {
				b.WriteString(sgrFor(c))
				cur = k
				started = true
			}
			if len(c.Runes) == 0 {
				b.WriteByte(' ')
			} else {
				for _, r := range c.Runes {
					b.WriteRune(r)
				}
			}
		}
	}
	b.WriteString("\033[0m")
	cursorRow, cursorCol := s.Cursor()
	fmt.Fprintf(&b, "\033[%d;%dH", cursorRow+1, cursorCol+1)
	return []byte(b.String())
}

type styleKey struct {
	fg, bg, ul screen.Colour
	attrs      screen.Attr
}

func keyOf(c screen.Cell) styleKey {
	return styleKey{fg: c.Fg, bg: c.Bg, ul: c.Underline, attrs: c.Attrs}
}

// sgrFor renders one cell's style as a full SGR reset-and-reapply
// sequence. Collapsing to "only the codes that changed" is the usual
// terminal-emulator optimization; skipped here per the same
// full-redraw-over-diffing tradeoff RenderScreen documents.
func sgrFor(c screen.Cell) string {
	codes := []string{"0"}
	if c.Attrs&screen.AttrBold != 0 {
		codes = append(codes, "1")
	}
	if c.Attrs&screen.AttrDim != 0 {
		codes = append(codes, "2")
	}
	if c.Attrs&screen.AttrItalic != 0 {
		codes = append(codes, "3")
	}
	if c.Attrs&screen.AttrUnderline != 0 {
		codes = append(codes, "4")
	}
	if c.Attrs&screen.AttrBlink != 0 {
		codes = append(codes, "5")
	}
	if c.Attrs&screen.AttrReverse != 0 {
		codes = append(codes, "7")
	}
	if c.Attrs&screen.AttrHidden != 0 {
		codes = append(codes, "8")
	}
	if c.Attrs&screen.AttrStrikethrough != 0 {
		codes = append(codes, "9")
	}
	if code, ok := colourCode(c.Fg, false); ok {
		codes = append(codes, code)
	}
	if code, ok := colourCode(c.Bg, true); ok {
		codes = append(codes, code)
	}
	return "\033[" + strings.Join(codes, ";") + "m"
}

func colourCode(c screen.Colour, bg bool) (string, bool) {
	base := 38
	if bg {
		base = 48
	}
	switch c.Mode {
	case screen.ColourIndexed:
		return strconv.Itoa(base) + ";5;" + strconv.Itoa(int(c.Index)), true
	case screen.ColourRGB:
		return fmt.Sprintf("%d;2;%d;%d;%d", base, c.R, c.G, c.B), true
	default:
		return "", false
	}
}
