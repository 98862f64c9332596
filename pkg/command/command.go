// Package command runs external tools behind a small interface so callers
// can be tested without invoking anything real.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kilnproject/kiln/pkg/util/console"
)

// Runner executes external commands. Exec is the real implementation; tests
// substitute a FakeRunner.
type Runner interface {
	// LookPath resolves name on PATH.
	LookPath(name string) (string, error)
	// Run executes the command with output streamed to the user.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns captured stdout. On failure
	// the returned error carries the captured stderr.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Error is a command failure with its captured stderr, so callers can match
// on tool output without re-running anything.
type Error struct {
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, strings.TrimSpace(e.Stderr))
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Exec struct{}

func NewExec() *Exec {
	return &Exec{}
}

func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	console.Debug("$ " + strings.Join(cmd.Args, " "))
	return cmd.Run()
}

func (e *Exec) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	console.Debug("$ " + strings.Join(cmd.Args, " "))
	out, err := cmd.Output()
	if err != nil {
		return out, &Error{Stderr: stderr.String(), Err: err}
	}
	return out, nil
}
