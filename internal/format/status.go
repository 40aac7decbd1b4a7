package format

import "strings"

// StyleRange records which byte span of a composed status line came from
// which entity, so a mouse click on the status line can be mapped back
// to the window/pane that produced the text (spec.md §4.K: "It tracks
// style ranges so mouse clicks on the status line can be mapped back to
// the entity that produced the text").
type StyleRange struct {
	From, To int // byte offsets into the composed line, [From, To)
	Entity   string
}

// WindowItem is one entry in the status line's window-list section
// (spec.md §4.K "a list section containing per-window items").
type WindowItem struct {
	Entity string // e.g. "@3" window id, used for StyleRange.Entity
	Text   string
	Active bool
}

// Status composes one status-line row from independent sections, per
// spec.md §4.K: left, right, centre, absolute-centre, plus a window-list
// section, with trimming and marker arrows when width is insufficient.
type Status struct {
	Left, Right, Centre string
	AbsoluteCentre      string
	Windows             []WindowItem
}

// Compose renders st into a single line exactly width columns wide (byte
// width; gomux's Non-goals exclude wide-rune-aware status composition
// beyond what the grid itself already clamps for pane content) and
// returns the style ranges describing which section produced which span.
func Compose(st Status, width int) (string, []StyleRange) {
	var windowList strings.Builder
	var ranges []StyleRange
	for i, w := range st.Windows {
		if i > 0 {
			windowList.WriteByte(' ')
		}
		start := windowList.Len()
		text := w.Text
		if w.Active {
			text = "*" + text + "*"
		}
		windowList.WriteString(text)
		ranges = append(ranges, StyleRange{From: start, To: windowList.Len(), Entity: w.Entity})
	}

	middle := st.Centre
	if middle == "" {
		middle = windowList.String()
	}

	line := composeThreeColumn(st.Left, middle, st.Right, width)
	if st.AbsoluteCentre != "" {
		line = overlayAbsoluteCentre(line, st.AbsoluteCentre, width)
	}
	return line, offsetRanges(ranges, len(st.Left)+boolToInt(st.Left != "" && middle != ""))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func offsetRanges(ranges []StyleRange, offset int) []StyleRange {
	out := make([]StyleRange, len(ranges))
	for i, r := range ranges {
		out[i] = StyleRange{From: r.From + offset, To: r.To + offset, Entity: r.Entity}
	}
	return out
}

// composeThreeColumn lays left/middle/right into exactly width columns:
// left pinned at column 0, middle placed directly after left (one space
// between them), right pinned at the far edge. When everything does not
// fit, right is dropped first, then middle is truncated with a trailing
// ">" marker (spec.md:
// "applies trimming and marker arrows when there is insufficient width").
func composeThreeColumn(left, middle, right string, width int) string {
	if width <= 0 {
		return ""
	}
	sep := ""
	if left != "" && middle != "" {
		sep = " "
	}
	used := len(left) + len(sep) + len(middle)
	if used+len(right)+1 <= width {
		gap := width - used - len(right)
		return left + sep + middle + strings.Repeat(" ", gap) + right
	}
	// Right doesn't fit: drop it and fit left+middle, trimming middle
	// with a ">" marker if still too wide.
	if used > width {
		avail := width - len(left) - len(sep)
		if avail < 1 {
			return padOrTrim(left, width)
		}
		if len(middle) > avail {
			if avail >= 1 {
				middle = middle[:avail-1] + ">"
			} else {
				middle = ""
			}
		}
		return padOrTrim(left+sep+middle, width)
	}
	return padOrTrim(left+sep+middle, width)
}

func padOrTrim(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// overlayAbsoluteCentre writes text centred on the true midpoint of the
// line regardless of what else is there, matching tmux's
// status-justify=absolute-centre behaviour.
func overlayAbsoluteCentre(line, text string, width int) string {
	if len(text) >= width {
		return text[:width]
	}
	start := (width - len(text)) / 2
	b := []byte(line)
	copy(b[start:start+len(text)], text)
	return string(b)
}
