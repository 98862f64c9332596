package builder

import (
	"context"

	"github.com/kilnproject/kiln/pkg/buildcontext"
	"github.com/kilnproject/kiln/pkg/imagespec"
	"github.com/kilnproject/kiln/pkg/util/console"
)

// Driver runs the external build tool. Satisfied by docker.Driver.
type Driver interface {
	CheckTool(ctx context.Context, spec *imagespec.Spec) error
	Build(ctx context.Context, spec *imagespec.Spec, contextDir string) error
}

// ExistenceChecker answers whether an image reference is already present in
// its registry. Satisfied by registry.Checker.
type ExistenceChecker interface {
	Exists(ctx context.Context, imageRef string) (bool, error)
}

// DefaultBuilder is the general-purpose layered build flow. It accepts
// every requirement source.
type DefaultBuilder struct {
	Driver  Driver
	Checker ExistenceChecker

	// Dir anchors the spec's relative paths, usually the directory holding
	// kiln.yaml.
	Dir string

	// Force skips the existence check and always rebuilds.
	Force bool
}

func NewDefaultBuilder(driver Driver, checker ExistenceChecker, dir string) *DefaultBuilder {
	return &DefaultBuilder{Driver: driver, Checker: checker, Dir: dir}
}

func (b *DefaultBuilder) Supports(kind imagespec.RequirementsKind) bool {
	return true
}

func (b *DefaultBuilder) Build(ctx context.Context, spec *imagespec.Spec) (string, error) {
	imageName := spec.ImageName()

	if spec.Registry != "" && !b.Force {
		exists, err := b.Checker.Exists(ctx, imageName)
		if err != nil {
			return "", err
		}
		if exists {
			console.Infof("Image %s already exists, skipping build", imageName)
			return imageName, nil
		}
	}

	warnIgnoredFields(spec)

	// Check the tool before anything is staged, so a missing tool leaves
	// no scratch directories behind.
	if err := b.Driver.CheckTool(ctx, spec); err != nil {
		return "", err
	}

	buildContext, err := buildcontext.Materialize(spec, b.Dir)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := buildContext.Cleanup(); err != nil {
			console.Warnf("%v", err)
		}
	}()

	if err := b.Driver.Build(ctx, spec, buildContext.Dir); err != nil {
		return "", err
	}
	return imageName, nil
}

// warnIgnoredFields flags settings this flow quietly has no use for. They
// are warnings, not errors, so one kiln.yaml can serve several specs.
func warnIgnoredFields(spec *imagespec.Spec) {
	if spec.SourceRoot != "" && !spec.CopySourceTree {
		console.Warnf("source_root is set but copy_source_tree is not, the source tree will not be copied")
	}
	if spec.InstallProject && spec.RequirementsKind() != imagespec.RequirementsUvLock {
		console.Warnf("install_project only applies to uv.lock requirements")
	}
}
