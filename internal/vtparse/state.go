// Package vtparse implements the pane byte-stream input parser of
// spec.md §4.F: a table-driven state machine over the bytes a pane's
// child process writes, dispatching ground text, C0/C1 controls, ESC
// sequences, CSI sequences (with an SGR sub-state-machine), OSC/DCS/APC
// strings, and the title-setting "rename" string, into calls against a
// Sink the caller supplies.
//
// Written fresh against the spec (no VT-emulation library ships in the
// retrieval pack to adapt instead), following the teacher's preference
// for small hand-rolled state machines over pulling in a library for a
// self-contained parsing job (virtualterminal.CapturePlainHistory keeps
// its own tiny ANSI-stripping state machine rather than importing one).
package vtparse

// State identifies one node of the parser's state machine.
type State int

const (
	StateGround State = iota
	StateEscape
	StateEscapeIntermediate
	StateCSIEntry
	StateCSIParam
	StateCSIIntermediate
	StateCSIIgnore
	StateDCSEntry
	StateDCSParam
	StateDCSIntermediate
	StateDCSPassthrough
	StateDCSIgnore
	StateOSCString
	StateAPCString
	StateRenameString // rename/PM string after ESC k or ESC ^, ended by ST or BEL
	StateConsumeST    // swallowing bytes up to ST after an unsupported string
)

// Limits matching spec.md's stated caps: an intermediate/parameter byte
// budget and a hard input-buffer cap that forces INPUT_DISCARD.
const (
	maxIntermediates = 64
	maxParamBytes    = 64
	maxStringBytes   = 1 << 20 // 1 MiB hard limit per string-type sequence
)

// action identifies what the state machine does with an input byte.
type action int

const (
	actionIgnore action = iota
	actionPrint
	actionExecute // C0/C1 control
	actionClear
	actionCollect    // intermediate byte
	actionParam      // parameter byte (CSI/DCS)
	actionESCDispatch
	actionCSIDispatch
	actionHook   // DCS entry into passthrough
	actionPut    // DCS passthrough byte
	actionUnhook // DCS passthrough exit
	actionOSCStart
	actionOSCPut
	actionOSCEnd
	actionAPCStart
	actionAPCPut
	actionAPCEnd
)

// transition is a (next-state, action) pair the table yields for a byte
// in a given state.
type transition struct {
	next State
	act  action
}
