// Package docker drives image builds through the docker or depot CLI.
package docker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kilnproject/kiln/pkg/command"
	"github.com/kilnproject/kiln/pkg/env"
	"github.com/kilnproject/kiln/pkg/imagespec"
	"github.com/kilnproject/kiln/pkg/util/console"
)

const (
	dockerInstallURL = "https://docs.docker.com/get-docker/"
	depotInstallURL  = "https://depot.dev/docs/installation"
)

const pingTimeout = 2 * time.Second

// Driver shells out to the build tool the spec selects. Builds run in the
// foreground with output streamed to the user, and a failed build is final:
// the tool's own output says what went wrong, so there are no retries.
type Driver struct {
	runner command.Runner

	// ping is swapped out in tests so they do not need a live daemon.
	ping func(ctx context.Context, timeout time.Duration) error
}

func NewDriver(runner command.Runner) *Driver {
	return &Driver{runner: runner, ping: Ping}
}

// Build runs the selected tool against a prepared context directory. The
// image is pushed in the same invocation when the spec names a registry and
// the environment does not veto it.
func (d *Driver) Build(ctx context.Context, spec *imagespec.Spec, contextDir string) error {
	if err := d.CheckTool(ctx, spec); err != nil {
		return err
	}
	if ShouldPush(spec) {
		warnOnMissingCredentials(spec.Registry)
	}

	tool := toolFor(spec)
	args := buildArgs(spec, contextDir)
	console.Infof("Run command: %s %s", tool, strings.Join(args, " "))
	if err := d.runner.Run(ctx, tool, args...); err != nil {
		return fmt.Errorf("Failed to build image %s: %w", spec.ImageName(), err)
	}
	return nil
}

// CheckTool verifies the selected tool is usable before anything is staged:
// the binary must be on PATH, and for docker the daemon must answer a ping.
func (d *Driver) CheckTool(ctx context.Context, spec *imagespec.Spec) error {
	if spec.UseDepot {
		if _, err := d.runner.LookPath("depot"); err != nil {
			return fmt.Errorf("depot is not installed or not in PATH. Install it from %s, or unset use_depot to build with Docker", depotInstallURL)
		}
		return nil
	}

	if _, err := d.runner.LookPath("docker"); err != nil {
		return fmt.Errorf("Docker is not installed or not in PATH. Install it from %s, or set use_depot: true to build with depot", dockerInstallURL)
	}
	if err := d.ping(ctx, pingTimeout); err != nil {
		return fmt.Errorf("Docker daemon is not running or not accessible, start it and try again: %w", err)
	}
	return nil
}

// ShouldPush reports whether a build should push its image: the spec must
// name a registry and the environment must not veto it.
func ShouldPush(spec *imagespec.Spec) bool {
	return spec.Registry != "" && env.PushFromEnvironment()
}

func toolFor(spec *imagespec.Spec) string {
	if spec.UseDepot {
		return "depot"
	}
	return "docker"
}

func buildArgs(spec *imagespec.Spec, contextDir string) []string {
	args := []string{"image", "build"}
	if spec.UseDepot {
		args = []string{"build"}
	}
	args = append(args,
		"--tag", spec.ImageName(),
		"--platform", spec.Platform,
	)
	if ShouldPush(spec) {
		args = append(args, "--push")
	}
	return append(args, contextDir)
}
