// Package doctor diagnoses the build environment and the working tree
// before a build is attempted.
package doctor

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilnproject/kiln/pkg/command"
	"github.com/kilnproject/kiln/pkg/docker"
	"github.com/kilnproject/kiln/pkg/ignore"
)

const pingTimeout = 2 * time.Second

// problematicDirNames are directories that usually have no business inside
// a build context but survive the default ignore rules unless the project
// excludes them itself.
var problematicDirNames = []string{
	".venv", "venv", "node_modules", ".mypy_cache", ".pytest_cache", ".tox", ".ruff_cache", "wandb",
}

var suffixesToSkip = []string{
	".py", ".ipynb", ".whl", // Python projects
	".jpg", ".jpeg", ".png", ".webp", ".svg", ".gif", ".avif", ".heic", // images
	".mp4", ".mov", ".avi", ".wmv", ".mkv", ".webm", // videos
	".mp3", ".wav", ".ogg", ".flac", ".aac", ".m4a", // audio
	".log",
}

const sizeThreshold = 20 * 1024 * 1024 // 20MB

// Check is one verdict from an environment probe.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

type Doctor struct {
	Runner command.Runner

	// ping is swapped out in tests so they do not need a live daemon.
	ping func(ctx context.Context, timeout time.Duration) error
}

func New(runner command.Runner) *Doctor {
	return &Doctor{Runner: runner, ping: docker.Ping}
}

// CheckEnvironment probes the external tools a build might need. Probes run
// concurrently; a failed probe is a verdict, not an error.
func (d *Doctor) CheckEnvironment(ctx context.Context) []Check {
	checks := make([]Check, 3)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		checks[0] = d.dockerCheck(ctx)
		return nil
	})
	g.Go(func() error {
		checks[1] = d.depotCheck()
		return nil
	})
	g.Go(func() error {
		checks[2] = d.awsCheck(ctx)
		return nil
	})

	_ = g.Wait()
	return checks
}

func (d *Doctor) dockerCheck(ctx context.Context) Check {
	if _, err := d.Runner.LookPath("docker"); err != nil {
		return Check{Name: "docker", Detail: "not installed (https://docs.docker.com/get-docker/)"}
	}
	if err := d.ping(ctx, pingTimeout); err != nil {
		return Check{Name: "docker", Detail: "installed, but the daemon is not reachable"}
	}
	return Check{Name: "docker", OK: true, Detail: "installed, daemon reachable"}
}

func (d *Doctor) depotCheck() Check {
	if _, err := d.Runner.LookPath("depot"); err != nil {
		return Check{Name: "depot", Detail: "not installed (https://depot.dev/docs/installation), only needed with use_depot"}
	}
	return Check{Name: "depot", OK: true, Detail: "installed"}
}

func (d *Doctor) awsCheck(ctx context.Context) Check {
	if _, err := d.Runner.LookPath("aws"); err != nil {
		return Check{Name: "aws", Detail: "not installed, ECR existence checks will use the registry API"}
	}
	if _, err := d.Runner.Output(ctx, "aws", "sts", "get-caller-identity"); err != nil {
		return Check{Name: "aws", Detail: "installed, but credentials are not configured"}
	}
	return Check{Name: "aws", OK: true, Detail: "installed, credentials configured"}
}

// Report lists housekeeping findings for a source tree.
type Report struct {
	// ProblemDirs would bloat the build context and should probably be
	// added to .dockerignore.
	ProblemDirs []string
	// LargeFiles exceed the size threshold and are better hosted outside
	// the image.
	LargeFiles []string
	// Warnings are paths whose eligibility could not be confirmed.
	Warnings []string
}

// Empty reports whether the scan found nothing worth mentioning.
func (r *Report) Empty() bool {
	return len(r.ProblemDirs) == 0 && len(r.LargeFiles) == 0 && len(r.Warnings) == 0
}

// CheckFiles scans dir the way build context staging would, flagging
// whatever survives the ignore rules but probably should not.
func CheckFiles(dir string) (*Report, error) {
	group, err := ignore.DefaultGroup(dir)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	err = group.Walk(func(relPath string, entry fs.DirEntry) error {
		if entry.IsDir() {
			if slices.Contains(problematicDirNames, entry.Name()) {
				report.ProblemDirs = append(report.ProblemDirs, relPath)
			}
			return nil
		}
		if skippableSuffix(entry.Name()) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: cannot stat, eligibility not confirmed", relPath))
			return nil
		}
		if info.Size() >= sizeThreshold {
			report.LargeFiles = append(report.LargeFiles, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func skippableSuffix(name string) bool {
	for _, suffix := range suffixesToSkip {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
