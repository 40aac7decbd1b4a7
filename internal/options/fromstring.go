package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"gomux/internal/keycode"
)

// FromString parses value according to te's declared Kind (spec.md
// §4.A `from-string`). cur is the current value, consulted when append
// is true for string/flag-toggle semantics.
func FromString(te *TableEntry, value string, doAppend bool, cur Value) (Value, error) {
	switch te.Kind {
	case KindString:
		if doAppend {
			return Value{Kind: KindString, String: cur.String + value}, nil
		}
		return Value{Kind: KindString, String: value}, nil

	case KindNumber:
		n, err := parseNumber(value, te.Min, te.Max)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindNumber, Number: n}, nil

	case KindKey:
		k, err := keycode.Parse(value)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrBadRange, err)
		}
		return Value{Kind: KindKey, Number: int64(k)}, nil

	case KindColour:
		rgb, err := parseColour(value)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrBadRange, err)
		}
		return Value{Kind: KindColour, String: rgb}, nil

	case KindFlag:
		return parseFlag(value, cur)

	case KindChoice:
		for _, c := range te.Choices {
			if c == value {
				return Value{Kind: KindChoice, String: value}, nil
			}
		}
		return Value{}, fmt.Errorf("%w: %q not one of %s", ErrInvalidValue, value, strings.Join(te.Choices, ","))

	case KindCommand:
		// The command grammar is owned by internal/langparse; options
		// only stores the source text so a caller with a parser in hand
		// can compile it lazily (kept this way to avoid options<->langparse
		// import cycles -- see DESIGN.md).
		return Value{Kind: KindCommand, String: value}, nil

	default:
		return Value{}, fmt.Errorf("%w: unhandled kind", ErrInvalidValue)
	}
}

// parseFlag implements the {on|yes|1|off|no|0} grammar, with empty string
// meaning "toggle current value".
func parseFlag(value string, cur Value) (Value, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return Value{Kind: KindFlag, Flag: !cur.Flag}, nil
	case "on", "yes", "1", "true":
		return Value{Kind: KindFlag, Flag: true}, nil
	case "off", "no", "0", "false":
		return Value{Kind: KindFlag, Flag: false}, nil
	default:
		return Value{}, fmt.Errorf("%w: %q is not a flag value", ErrInvalidValue, value)
	}
}

// parseColour accepts a colour name, "#rrggbb", or "colourNNN" and always
// normalizes to "#rrggbb" so comparisons and rendering are uniform.
func parseColour(value string) (string, error) {
	v := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(v, "#"):
		c, err := colorful.Hex(v)
		if err != nil {
			return "", err
		}
		return c.Hex(), nil
	case strings.HasPrefix(v, "colour") || strings.HasPrefix(v, "color"):
		digits := strings.TrimPrefix(strings.TrimPrefix(v, "colour"), "color")
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 || n > 255 {
			return "", fmt.Errorf("bad colour index %q", v)
		}
		return ansi256ToHex(n), nil
	default:
		if hex, ok := namedColours[v]; ok {
			return hex, nil
		}
		return "", fmt.Errorf("unknown colour name %q", v)
	}
}

var namedColours = map[string]string{
	"black": "#000000", "red": "#800000", "green": "#008000",
	"yellow": "#808000", "blue": "#000080", "magenta": "#800080",
	"cyan": "#008080", "white": "#c0c0c0", "default": "#000000",
	"brightblack": "#808080", "brightred": "#ff0000", "brightgreen": "#00ff00",
	"brightyellow": "#ffff00", "brightblue": "#0000ff", "brightmagenta": "#ff00ff",
	"brightcyan": "#00ffff", "brightwhite": "#ffffff",
}

// ansi256ToHex converts the standard 6x6x6 colour cube + greyscale ramp
// used by "colourNNN" names into an RGB hex string.
func ansi256ToHex(n int) string {
	switch {
	case n < 16:
		// First 16 map to the named ANSI colours in order.
		names := []string{
			"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
			"brightblack", "brightred", "brightgreen", "brightyellow",
			"brightblue", "brightmagenta", "brightcyan", "brightwhite",
		}
		return namedColours[names[n]]
	case n < 232:
		n -= 16
		r := cubeLevel(n / 36)
		g := cubeLevel((n / 6) % 6)
		b := cubeLevel(n % 6)
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	default:
		level := 8 + (n-232)*10
		return fmt.Sprintf("#%02x%02x%02x", level, level, level)
	}
}

func cubeLevel(n int) int {
	if n == 0 {
		return 0
	}
	return 55 + n*40
}
