package options

// PushAction is one of the small fixed set of process-wide side effects
// triggered by certain option assignments (spec.md §4.A "Option push").
// Rather than arbitrary callbacks per option, the engine recognizes a
// closed list of option names and reports which action(s) fired so the
// caller (internal/mux) can apply them.
type PushAction int

const (
	PushNone PushAction = iota
	PushRename          // automatic-rename changed
	PushStatus          // status / status-position / status-interval changed
	PushBorder          // pane-border-status changed
	PushSilence         // monitor-silence changed
	PushCursorStyle     // cursor-style changed
	PushKeyTable        // key-table changed
	PushStyle           // any *-style option changed
)

var pushTriggers = map[string]PushAction{
	"automatic-rename":   PushRename,
	"status":             PushStatus,
	"status-position":    PushStatus,
	"status-interval":    PushStatus,
	"pane-border-status": PushBorder,
	"monitor-silence":    PushSilence,
	"cursor-style":       PushCursorStyle,
	"key-table":          PushKeyTable,
}

// PushActionFor returns the push action associated with a canonical
// option name, or PushNone if the option has no process-wide side
// effect. Style options (suffix "-style") always map to PushStyle.
func PushActionFor(name string) PushAction {
	if a, ok := pushTriggers[name]; ok {
		return a
	}
	if len(name) > len("-style") && name[len(name)-len("-style"):] == "-style" {
		return PushStyle
	}
	return PushNone
}

// SetStringPush is SetString plus the resolved push action, so callers
// don't need to duplicate name-resolution to find out whether to react.
func (t *Tree) SetStringPush(name, value string, doAppend bool) (PushAction, error) {
	if err := t.SetString(name, value, doAppend); err != nil {
		return PushNone, err
	}
	return PushActionFor(name), nil
}
