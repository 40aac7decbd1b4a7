package langparse

import (
	"os"
	"os/user"
	"strings"
)

// expandOutsideQuote applies tilde expansion and $NAME / ${NAME} env
// expansion to unquoted or double-quoted text (spec.md §4.D: "outside
// single quotes, ~ and ~user at the start of a word expand to a home
// directory, and $NAME / ${NAME} expand from the environment").
func expandOutsideQuote(s string) string {
	s = expandTilde(s)
	return expandEnv(s)
}

func expandTilde(s string) string {
	if !strings.HasPrefix(s, "~") {
		return s
	}
	rest := s[1:]
	end := strings.IndexAny(rest, "/")
	var name, tail string
	if end < 0 {
		name, tail = rest, ""
	} else {
		name, tail = rest[:end], rest[end:]
	}
	var home string
	if name == "" {
		home = os.Getenv("HOME")
		if home == "" {
			if u, err := user.Current(); err == nil {
				home = u.HomeDir
			}
		}
	} else {
		if u, err := user.Lookup(name); err == nil {
			home = u.HomeDir
		} else {
			return s // unknown user: leave untouched
		}
	}
	if home == "" {
		return s
	}
	return home + tail
}

// expandEnv expands $NAME and ${NAME} references, leaving unknown
// variables as empty string (matching os.Expand semantics). A "$" not
// followed by a name is left untouched; "$$" is read as the variable
// named "$" and so expands to the empty string.
func expandEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
