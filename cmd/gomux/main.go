// Command gomux is a terminal multiplexer: a background server holds a
// tree of sessions, windows, and panes, and short-lived client processes
// attach to it over a Unix domain socket. There is no single teacher
// source file for this entrypoint -- the retrieval pack's only `main`
// packages belong to unrelated benchmark runners -- so this package is
// written fresh, mirroring the teacher's thin-main-delegates-to-
// internal/cmd split (its own `h2` binary's main.go was never retrieved,
// but every command it runs lives in internal/cmd and is wired together
// by a single NewRootCmd).
package main

import (
	"fmt"
	"os"

	"gomux/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
