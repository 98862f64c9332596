package console

import (
	"os"

	"github.com/moby/term"
)

// StderrIsTerminal reports whether log output lands in a live terminal.
// Colors and prompts are only emitted when it does; piped output stays
// plain text.
func StderrIsTerminal() bool {
	return term.IsTerminal(os.Stderr.Fd())
}
