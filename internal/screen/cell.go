// Package screen implements the grid/screen data model of spec.md §4.G:
// persistent cell storage with history, a cursor/mode/selection view over
// it, a hyperlink interner, and a write context that batches runs of
// same-style output into dirty-region notifications.
//
// Grounded on the teacher's virtualterminal.VT, which drove a
// midterm.Terminal as its screen model (vt.go: "Vt *midterm.Terminal",
// vt.Resize calling through to it); gomux hand-rolls the grid itself
// since spec.md puts it in core scope, but keeps the same shape of
// "owns rows/cols, resized alongside the PTY, read for rendering".
package screen

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ColourMode tags which representation a Colour holds.
type ColourMode byte

const (
	ColourNone ColourMode = iota
	ColourIndexed
	ColourRGB
)

// Colour is a cell's foreground/background/underline colour (spec.md
// §3 Grid: "foreground, background, underline colour").
type Colour struct {
	Mode    ColourMode
	Index   uint8
	R, G, B uint8
}

// NoColour represents "use the default colour", not index 0.
var NoColour = Colour{Mode: ColourNone}

func IndexedColour(idx uint8) Colour { return Colour{Mode: ColourIndexed, Index: idx} }

func RGBColour(r, g, b uint8) Colour { return Colour{Mode: ColourRGB, R: r, G: g, B: b} }

// ParseHex parses a "#rrggbb" string into a truecolour Colour.
func ParseHex(s string) (Colour, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Colour{}, fmt.Errorf("screen: parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGBColour(r, g, b), nil
}

// Nearest256 downsamples an RGB colour to the nearest xterm-256 palette
// index (spec.md §4.A colour option kind: "colourNNN downsampling").
func (c Colour) Nearest256() uint8 {
	if c.Mode == ColourIndexed {
		return c.Index
	}
	target := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	best := uint8(0)
	bestDist := -1.0
	for i := 0; i < 256; i++ {
		pr, pg, pb := xterm256[i][0], xterm256[i][1], xterm256[i][2]
		cand := colorful.Color{R: float64(pr) / 255, G: float64(pg) / 255, B: float64(pb) / 255}
		d := target.DistanceLab(cand)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = uint8(i)
		}
	}
	return best
}

// xterm256 is the standard 16-colour + 6x6x6 cube + 24-step greyscale
// ramp xterm-256 palette, computed once at package init rather than
// hand-typed (the cube/ramp formulas are the well-known xterm ones).
var xterm256 [256][3]uint8

func init() {
	basic := [16][3]uint8{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	copy(xterm256[:16], basic[:])
	steps := [6]uint8{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				xterm256[i] = [3]uint8{steps[r], steps[g], steps[b]}
				i++
			}
		}
	}
	for n := 0; n < 24; n++ {
		v := uint8(8 + n*10)
		xterm256[232+n] = [3]uint8{v, v, v}
	}
}

// Attr is the cell attribute bitset (bold, underline style, etc.).
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrUnderlineDouble
	AttrUnderlineCurly
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

// Cell is one addressable grid position (spec.md §3 Grid). Runes holds
// the primary rune plus any combining marks printed onto it, so a grid
// cell can carry a full grapheme; Width is the display width of that
// grapheme (0 marks the trailing column of a wide cell to its left, per
// the invariant that a multi-column grapheme is never split).
type Cell struct {
	Runes     []rune
	Width     int
	Fg        Colour
	Bg        Colour
	Underline Colour
	Attrs     Attr
	Hyperlink uint32
	Image     uint32 // non-zero: this cell carries a SIXEL image reference
	Charset   byte   // 'B' ASCII, '0' DEC special graphics
}

// BlankCell is the erased-cell value: one space, width 1, no style.
func BlankCell() Cell {
	return Cell{Runes: []rune{' '}, Width: 1, Charset: 'B'}
}

// IsBlank reports whether the cell holds only the erased-cell space with
// no style, used by history compaction and copy-mode trimming.
func (c Cell) IsBlank() bool {
	return len(c.Runes) == 1 && c.Runes[0] == ' ' && c.Fg == NoColour && c.Bg == NoColour && c.Attrs == 0 && c.Hyperlink == 0
}
