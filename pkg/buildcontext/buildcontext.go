// Package buildcontext owns the ephemeral staging directory a build runs
// from: create, populate, hand to the build tool, destroy.
package buildcontext

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilnproject/kiln/pkg/dockerfile"
	"github.com/kilnproject/kiln/pkg/imagespec"
	"github.com/kilnproject/kiln/pkg/lockfile"
	"github.com/kilnproject/kiln/pkg/util/console"
)

// DockerfileName is the recipe filename inside the context directory.
const DockerfileName = "Dockerfile"

// Context is a materialized build context. Exactly one build invocation owns
// it, and Cleanup must run on every exit path.
type Context struct {
	// Dir is the staging directory handed to the build tool.
	Dir string
	// Dockerfile is the path of the rendered recipe inside Dir.
	Dockerfile string
	// Local describes lock-staged local packages; nil unless the spec uses
	// a uv lock.
	Local *lockfile.Result
}

// Materialize allocates a scratch directory and populates it with everything
// the build needs: lock artifacts, local packages, the filtered source tree,
// explicit copies, and the rendered Dockerfile. On failure the directory is
// removed before returning, so errors never leak scratch space.
func Materialize(spec *imagespec.Spec, dir string) (*Context, error) {
	tmpDir, err := os.MkdirTemp("", "kiln-build-")
	if err != nil {
		return nil, fmt.Errorf("Failed to create build context directory: %w", err)
	}

	generator := dockerfile.NewGenerator(spec, dir, tmpDir)
	content, err := generator.Generate()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, err
	}

	dockerfilePath := filepath.Join(tmpDir, DockerfileName)
	if err := os.WriteFile(dockerfilePath, []byte(content), 0o644); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("Failed to write Dockerfile: %w", err)
	}

	console.Debugf("Materialized build context in %s", tmpDir)
	return &Context{
		Dir:        tmpDir,
		Dockerfile: dockerfilePath,
		Local:      generator.LocalPackages(),
	}, nil
}

// Cleanup removes the context directory and everything staged in it. Safe to
// call more than once.
func (c *Context) Cleanup() error {
	if err := os.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("Failed to clean up %s: %w", c.Dir, err)
	}
	return nil
}
