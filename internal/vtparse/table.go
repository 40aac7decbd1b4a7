package vtparse

// classify returns the transition for byte b while in state s, covering
// the "anywhere" transitions (CAN/SUB abort to ground, ESC always starts
// a new escape sequence) before falling through to per-state rules, the
// same precedence order terminal-parser state tables use.
func classify(s State, b byte) transition {
	if t, ok := anywhere(b); ok {
		return t
	}
	switch s {
	case StateGround:
		return groundTransition(b)
	case StateEscape:
		return escapeTransition(b)
	case StateEscapeIntermediate:
		return escapeIntermediateTransition(b)
	case StateCSIEntry:
		return csiEntryTransition(b)
	case StateCSIParam:
		return csiParamTransition(b)
	case StateCSIIntermediate:
		return csiIntermediateTransition(b)
	case StateCSIIgnore:
		return csiIgnoreTransition(b)
	case StateDCSEntry:
		return dcsEntryTransition(b)
	case StateDCSParam:
		return dcsParamTransition(b)
	case StateDCSIntermediate:
		return dcsIntermediateTransition(b)
	case StateDCSPassthrough:
		return dcsPassthroughTransition(b)
	case StateDCSIgnore:
		return dcsIgnoreTransition(b)
	case StateOSCString:
		return oscStringTransition(b)
	case StateAPCString:
		return apcStringTransition(b)
	case StateRenameString:
		return renameStringTransition(b)
	case StateConsumeST:
		return consumeSTTransition(b)
	default:
		return transition{StateGround, actionIgnore}
	}
}

// anywhere handles CAN (0x18), SUB (0x1A), and ESC (0x1B) from any state.
// 8-bit C1 control bytes get no special handling here.
func anywhere(b byte) (transition, bool) {
	switch b {
	case 0x18, 0x1a: // CAN, SUB
		return transition{StateGround, actionExecute}, true
	case 0x1b: // ESC
		return transition{StateEscape, actionClear}, true
	}
	return transition{}, false
}

func isC0exceptEscape(b byte) bool {
	return b <= 0x17 || b == 0x19 || (b >= 0x1c && b <= 0x1f)
}

func groundTransition(b byte) transition {
	switch {
	case b == 0x1b:
		return transition{StateEscape, actionClear}
	case isC0exceptEscape(b):
		return transition{StateGround, actionExecute}
	case b == 0x7f:
		return transition{StateGround, actionIgnore}
	default:
		return transition{StateGround, actionPrint}
	}
}

func escapeTransition(b byte) transition {
	switch {
	case isC0exceptEscape(b):
		return transition{StateEscape, actionExecute}
	case b >= 0x20 && b <= 0x2f:
		return transition{StateEscapeIntermediate, actionCollect}
	case b == 0x5b: // '['
		return transition{StateCSIEntry, actionClear}
	case b == 0x5d: // ']'
		return transition{StateOSCString, actionOSCStart}
	case b == 0x50: // 'P' DCS
		return transition{StateDCSEntry, actionClear}
	case b == 0x5f: // '_' APC
		return transition{StateAPCString, actionAPCStart}
	case b == 0x6b || b == 0x5e: // 'k' (rename, rxvt-style) or '^' PM
		return transition{StateRenameString, actionOSCStart}
	case b >= 0x30 && b <= 0x7e:
		return transition{StateGround, actionESCDispatch}
	case b == 0x7f:
		return transition{StateEscape, actionIgnore}
	default:
		return transition{StateGround, actionIgnore}
	}
}

func escapeIntermediateTransition(b byte) transition {
	switch {
	case isC0exceptEscape(b):
		return transition{StateEscapeIntermediate, actionExecute}
	case b >= 0x20 && b <= 0x2f:
		return transition{StateEscapeIntermediate, actionCollect}
	case b >= 0x30 && b <= 0x7e:
		return transition{StateGround, actionESCDispatch}
	default:
		return transition{StateEscapeIntermediate, actionIgnore}
	}
}

func csiEntryTransition(b byte) transition {
	switch {
	case isC0exceptEscape(b):
		return transition{StateCSIEntry, actionExecute}
	case b >= 0x30 && b <= 0x39, b == 0x3b, b == 0x3a: // digits, ';', ':'
		return transition{StateCSIParam, actionParam}
	case b >= 0x3c && b <= 0x3f: // private-marker prefix
		return transition{StateCSIParam, actionParam}
	case b >= 0x20 && b <= 0x2f:
		return transition{StateCSIIntermediate, actionCollect}
	case b >= 0x40 && b <= 0x7e:
		return transition{StateGround, actionCSIDispatch}
	default:
		return transition{StateCSIIgnore, actionIgnore}
	}
}

func csiParamTransition(b byte) transition {
	switch {
	case isC0exceptEscape(b):
		return transition{StateCSIParam, actionExecute}
	case b >= 0x30 && b <= 0x39, b == 0x3b, b == 0x3a:
		return transition{StateCSIParam, actionParam}
	case b >= 0x3c && b <= 0x3f:
		return transition{StateCSIIgnore, actionIgnore}
	case b >= 0x20 && b <= 0x2f:
		return transition{StateCSIIntermediate, actionCollect}
	case b >= 0x40 && b <= 0x7e:
		return transition{StateGround, actionCSIDispatch}
	default:
		return transition{StateCSIParam, actionIgnore}
	}
}

func csiIntermediateTransition(b byte) transition {
	switch {
	case isC0exceptEscape(b):
		return transition{StateCSIIntermediate, actionExecute}
	case b >= 0x20 && b <= 0x2f:
		return transition{StateCSIIntermediate, actionCollect}
	case b >= 0x30 && b <= 0x3f:
		return transition{StateCSIIgnore, actionIgnore}
	case b >= 0x40 && b <= 0x7e:
		return transition{StateGround, actionCSIDispatch}
	default:
		return transition{StateCSIIntermediate, actionIgnore}
	}
}

func csiIgnoreTransition(b byte) transition {
	switch {
	case isC0exceptEscape(b):
		return transition{StateCSIIgnore, actionExecute}
	case b >= 0x40 && b <= 0x7e:
		return transition{StateGround, actionIgnore}
	default:
		return transition{StateCSIIgnore, actionIgnore}
	}
}

func dcsEntryTransition(b byte) transition {
	switch {
	case b >= 0x30 && b <= 0x39, b == 0x3b, b == 0x3a:
		return transition{StateDCSParam, actionParam}
	case b >= 0x3c && b <= 0x3f:
		return transition{StateDCSParam, actionParam}
	case b >= 0x20 && b <= 0x2f:
		return transition{StateDCSIntermediate, actionCollect}
	case b >= 0x40 && b <= 0x7e:
		return transition{StateDCSPassthrough, actionHook}
	default:
		return transition{StateDCSIgnore, actionIgnore}
	}
}

func dcsParamTransition(b byte) transition {
	switch {
	case b >= 0x30 && b <= 0x39, b == 0x3b, b == 0x3a:
		return transition{StateDCSParam, actionParam}
	case b >= 0x3c && b <= 0x3f:
		return transition{StateDCSIgnore, actionIgnore}
	case b >= 0x20 && b <= 0x2f:
		return transition{StateDCSIntermediate, actionCollect}
	case b >= 0x40 && b <= 0x7e:
		return transition{StateDCSPassthrough, actionHook}
	default:
		return transition{StateDCSParam, actionIgnore}
	}
}

func dcsIntermediateTransition(b byte) transition {
	switch {
	case b >= 0x20 && b <= 0x2f:
		return transition{StateDCSIntermediate, actionCollect}
	case b >= 0x30 && b <= 0x3f:
		return transition{StateDCSIgnore, actionIgnore}
	case b >= 0x40 && b <= 0x7e:
		return transition{StateDCSPassthrough, actionHook}
	default:
		return transition{StateDCSIntermediate, actionIgnore}
	}
}

func dcsPassthroughTransition(b byte) transition {
	switch {
	case b == 0x07: // some emitters terminate DCS with BEL
		return transition{StateGround, actionUnhook}
	default:
		return transition{StateDCSPassthrough, actionPut}
	}
}

func dcsIgnoreTransition(b byte) transition {
	return transition{StateDCSIgnore, actionIgnore}
}

func oscStringTransition(b byte) transition {
	switch b {
	case 0x07: // BEL terminator (de facto standard, not just ECMA-48 ST)
		return transition{StateGround, actionOSCEnd}
	default:
		return transition{StateOSCString, actionOSCPut}
	}
}

func apcStringTransition(b byte) transition {
	switch b {
	case 0x07:
		return transition{StateGround, actionAPCEnd}
	default:
		return transition{StateAPCString, actionAPCPut}
	}
}

func renameStringTransition(b byte) transition {
	switch b {
	case 0x07:
		return transition{StateGround, actionOSCEnd}
	default:
		return transition{StateRenameString, actionOSCPut}
	}
}

func consumeSTTransition(b byte) transition {
	return transition{StateConsumeST, actionIgnore}
}
