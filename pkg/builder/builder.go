// Package builder maps image specs to the concrete builder that should
// process them and runs the end-to-end build flow.
package builder

import (
	"context"
	"fmt"

	"github.com/kilnproject/kiln/pkg/imagespec"
	"github.com/kilnproject/kiln/pkg/util/console"
)

// Builder turns a validated spec into a built (and possibly pushed) image.
type Builder interface {
	// Supports reports whether the builder can process specs declaring the
	// given requirement source.
	Supports(kind imagespec.RequirementsKind) bool

	// Build produces the image for spec and returns its full name. A spec
	// whose image already exists remotely may skip the build; the name
	// comes back either way.
	Build(ctx context.Context, spec *imagespec.Spec) (string, error)
}

// Build validates spec, selects a builder from reg and runs it. A nested
// base spec is built first so its image name resolves as this image's FROM.
func Build(ctx context.Context, reg *Registry, spec *imagespec.Spec) (string, error) {
	if err := spec.ValidateAndComplete(); err != nil {
		return "", err
	}
	if spec.Base != nil {
		if _, err := Build(ctx, reg, spec.Base); err != nil {
			return "", fmt.Errorf("Failed to build base image for %s: %w", spec.Name, err)
		}
	}

	b, name, err := reg.Select(spec)
	if err != nil {
		return "", err
	}
	console.Infof("Building %s with the %s builder", spec.ImageName(), name)
	return b.Build(ctx, spec)
}
