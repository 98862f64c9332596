package builder

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kilnproject/kiln/pkg/imagespec"
)

// uvDisallowedFields could each install something the lock file does not
// pin, which defeats the point of building from one.
var uvDisallowedFields = []string{
	"conda_packages",
	"conda_channels",
	"commands",
	"pip_index",
	"pip_extra_index_url",
	"pip_extra_args",
}

// UvBuilder is a stricter flow for uv.lock specs: the runtime environment
// comes from the lock file and nothing else. The actual build is delegated
// to the general-purpose flow once that is enforced.
type UvBuilder struct {
	Default *DefaultBuilder
}

func NewUvBuilder(defaultBuilder *DefaultBuilder) *UvBuilder {
	return &UvBuilder{Default: defaultBuilder}
}

func (b *UvBuilder) Supports(kind imagespec.RequirementsKind) bool {
	return kind == imagespec.RequirementsUvLock
}

func (b *UvBuilder) Build(ctx context.Context, spec *imagespec.Spec) (string, error) {
	// an explicitly named builder bypasses Supports, so re-check here
	if kind := spec.RequirementsKind(); kind != imagespec.RequirementsUvLock {
		return "", fmt.Errorf("The uv builder requires a uv.lock requirements file, got %s", kind)
	}

	var rejected []string
	for _, field := range spec.SetFields() {
		if slices.Contains(uvDisallowedFields, field) {
			rejected = append(rejected, field)
		}
	}
	if len(rejected) > 0 {
		return "", fmt.Errorf("The uv builder does not support: %s. Remove these fields or set builder: default",
			strings.Join(rejected, ", "))
	}

	return b.Default.Build(ctx, spec)
}
