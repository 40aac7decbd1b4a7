package screen

// applySGR is the SGR sub-state machine of spec.md §4.F: "its own small
// state machine over the argument list, consuming up to three arguments
// for the 256-colour and truecolour cases." Two distinct wire forms feed
// an extended colour parameter (38/48/58), per tmux-rs's input.rs:
// classic semicolon-separated ("CSI 38;2;r;g;bm", consuming further
// flat, same-level params) and ITU-style colon sub-parameters ("CSI
// 38:2::r:g:bm" or "CSI 38:2:r:g:bm", self-contained inside one group).
// subParam marks which entries continue the previous one via ':'.
func (sk *Sink) applySGR(params []int, subParam []bool) {
	s := sk.wc.Screen
	if len(params) == 0 {
		s.ResetStyle()
		return
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		if p < 0 {
			p = 0
		}
		if i+1 < len(params) && subParam[i+1] {
			j := i + 1
			for j < len(params) && subParam[j] {
				j++
			}
			sk.applySGRColonGroup(append([]int{p}, params[i+1:j]...))
			i = j - 1
			continue
		}
		switch {
		case p == 0:
			s.ResetStyle()
		case p == 1:
			s.SetAttr(AttrBold, true)
		case p == 2:
			s.SetAttr(AttrDim, true)
		case p == 3:
			s.SetAttr(AttrItalic, true)
		case p == 4:
			s.SetAttr(AttrUnderline, true)
		case p == 5 || p == 6:
			s.SetAttr(AttrBlink, true)
		case p == 7:
			s.SetAttr(AttrReverse, true)
		case p == 8:
			s.SetAttr(AttrHidden, true)
		case p == 9:
			s.SetAttr(AttrStrikethrough, true)
		case p == 21:
			s.SetAttr(AttrUnderlineDouble, true)
		case p == 22:
			s.SetAttr(AttrBold, false)
			s.SetAttr(AttrDim, false)
		case p == 23:
			s.SetAttr(AttrItalic, false)
		case p == 24:
			s.SetAttr(AttrUnderline, false)
			s.SetAttr(AttrUnderlineDouble, false)
			s.SetAttr(AttrUnderlineCurly, false)
		case p == 25:
			s.SetAttr(AttrBlink, false)
		case p == 27:
			s.SetAttr(AttrReverse, false)
		case p == 28:
			s.SetAttr(AttrHidden, false)
		case p == 29:
			s.SetAttr(AttrStrikethrough, false)
		case p >= 30 && p <= 37:
			s.SetFg(IndexedColour(uint8(p - 30)))
		case p == 38:
			col, consumed := parseExtendedColour(params[i:])
			s.SetFg(col)
			i += consumed - 1
		case p == 39:
			s.SetFg(NoColour)
		case p >= 40 && p <= 47:
			s.SetBg(IndexedColour(uint8(p - 40)))
		case p == 48:
			col, consumed := parseExtendedColour(params[i:])
			s.SetBg(col)
			i += consumed - 1
		case p == 49:
			s.SetBg(NoColour)
		case p == 58:
			col, consumed := parseExtendedColour(params[i:])
			s.SetUnderlineColour(col)
			i += consumed - 1
		case p == 59:
			s.SetUnderlineColour(NoColour)
		case p >= 90 && p <= 97:
			s.SetFg(IndexedColour(uint8(p - 90 + 8)))
		case p >= 100 && p <= 107:
			s.SetBg(IndexedColour(uint8(p - 100 + 8)))
		}
	}
}

// applySGRColonGroup handles one self-contained colon-joined parameter
// group, e.g. [4 3] (underline style 3) or [38 2 r g b] / [38 2 cs r g b]
// / [38 5 n], grounded directly on tmux-rs's input_csi_dispatch_sgr_colon.
// Unlike the semicolon form, a colour-space id field (cs) may sit between
// the "2" selector and the RGB triple; its presence is detected purely
// from the group's length (5 fields means no cs field, 6 means one).
func (sk *Sink) applySGRColonGroup(p []int) {
	s := sk.wc.Screen
	n := len(p)
	if n == 0 {
		return
	}
	if p[0] == 4 {
		if n != 2 {
			return
		}
		switch p[1] {
		case 0:
			s.SetAttr(AttrUnderline, false)
			s.SetAttr(AttrUnderlineDouble, false)
			s.SetAttr(AttrUnderlineCurly, false)
		case 1:
			s.SetAttr(AttrUnderline, true)
		case 2:
			s.SetAttr(AttrUnderlineDouble, true)
		case 3, 4, 5:
			s.SetAttr(AttrUnderlineCurly, true)
		}
		return
	}
	if n < 2 || (p[0] != 38 && p[0] != 48 && p[0] != 58) {
		return
	}
	var col Colour
	switch p[1] {
	case 2:
		if n < 3 {
			return
		}
		start := 3
		if n == 5 {
			start = 2
		}
		if n < start+3 {
			return
		}
		col = RGBColour(uint8(clampByte(p[start])), uint8(clampByte(p[start+1])), uint8(clampByte(p[start+2])))
	case 5:
		if n < 3 {
			return
		}
		col = IndexedColour(uint8(clampByte(p[2])))
	default:
		return
	}
	switch p[0] {
	case 38:
		s.SetFg(col)
	case 48:
		s.SetBg(col)
	case 58:
		s.SetUnderlineColour(col)
	}
}

// parseExtendedColour reads a 38/48/58-prefixed colour argument group
// starting at params[0] (which is 38, 48, or 58), returning the decoded
// colour and how many params it consumed. Handles both the 256-colour
// form (Ps;5;N) and the truecolour form (Ps;2;R;G;B). A group with no
// selector consumes just the leading Ps; a truncated group or an unknown
// selector consumes Ps and the selector.
func parseExtendedColour(params []int) (Colour, int) {
	if len(params) < 2 {
		return NoColour, 1
	}
	switch params[1] {
	case 5:
		if len(params) < 3 {
			return NoColour, 2
		}
		return IndexedColour(uint8(clampByte(params[2]))), 3
	case 2:
		if len(params) < 5 {
			return NoColour, 2
		}
		return RGBColour(uint8(clampByte(params[2])), uint8(clampByte(params[3])), uint8(clampByte(params[4]))), 5
	}
	return NoColour, 2
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
