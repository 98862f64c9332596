package command

import (
	"context"
	"os/exec"
	"slices"
	"strings"
)

// FakeRunner records commands instead of executing them.
type FakeRunner struct {
	// Binaries are the tool names LookPath resolves. Anything else is
	// reported as not installed.
	Binaries   []string
	RunFunc    func(name string, args ...string) error
	OutputFunc func(name string, args ...string) ([]byte, error)

	// Commands holds every executed command line, in order.
	Commands []string
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	if slices.Contains(f.Binaries, name) {
		return "/usr/local/bin/" + name, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.record(name, args)
	if f.RunFunc != nil {
		return f.RunFunc(name, args...)
	}
	return nil
}

func (f *FakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	if f.OutputFunc != nil {
		return f.OutputFunc(name, args...)
	}
	return nil, nil
}

func (f *FakeRunner) record(name string, args []string) {
	f.Commands = append(f.Commands, strings.Join(append([]string{name}, args...), " "))
}
