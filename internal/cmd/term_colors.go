package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"gomux/internal/config"
)

// terminalColorHints captures the attaching terminal's background/
// foreground so a pane can echo a sane OSC 10/11 reply even when the
// pane's own child process never received a real TTY probe (e.g. a
// detached session later attached from a different terminal). Grounded
// directly on the teacher's term_colors.go, generalized from h2's
// per-agent cache file to one shared cache file, terminal-colors.json,
// under gomux's own config.Dir().
type terminalColorHints struct {
	OscFg     string `json:"osc_fg,omitempty"`
	OscBg     string `json:"osc_bg,omitempty"`
	ColorFGBG string `json:"colorfgbg,omitempty"`
}

// refreshTerminalColorHintsCache probes the current terminal's colors
// and persists them, a no-op off a TTY.
func refreshTerminalColorHintsCache() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	var hints terminalColorHints
	output := termenv.NewOutput(os.Stdout)
	if fg := output.ForegroundColor(); fg != nil {
		hints.OscFg = colorToX11(fg)
	}
	if bg := output.BackgroundColor(); bg != nil {
		hints.OscBg = colorToX11(bg)
	}
	hints.ColorFGBG = os.Getenv("COLORFGBG")
	_ = persistTerminalColorHints(hints)
}

func colorToX11(c termenv.Color) string {
	if c == nil {
		return ""
	}
	rgb := termenv.ConvertToRGB(c)
	r := uint8(rgb.R*255 + 0.5)
	g := uint8(rgb.G*255 + 0.5)
	b := uint8(rgb.B*255 + 0.5)
	return fmt.Sprintf("rgb:%04x/%04x/%04x", uint16(r)*0x101, uint16(g)*0x101, uint16(b)*0x101)
}

func terminalColorHintsPath() string {
	return filepath.Join(config.Dir(), "terminal-colors.json")
}

func persistTerminalColorHints(h terminalColorHints) error {
	path := terminalColorHintsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
