package buildcontext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilnproject/kiln/pkg/imagespec"
)

func scratchDirs(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "kiln-build-*"))
	require.NoError(t, err)
	return matches
}

func TestMaterializeWritesDockerfile(t *testing.T) {
	spec := &imagespec.Spec{Name: "app"}
	require.NoError(t, spec.ValidateAndComplete())

	ctx, err := Materialize(spec, t.TempDir())
	require.NoError(t, err)
	defer ctx.Cleanup()

	require.Equal(t, filepath.Join(ctx.Dir, DockerfileName), ctx.Dockerfile)
	content, err := os.ReadFile(ctx.Dockerfile)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(content), "#syntax=docker/dockerfile:1.5\n"))
	require.Nil(t, ctx.Local)
}

func TestCleanupRemovesContext(t *testing.T) {
	spec := &imagespec.Spec{Name: "app"}
	require.NoError(t, spec.ValidateAndComplete())

	ctx, err := Materialize(spec, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, ctx.Cleanup())
	require.NoDirExists(t, ctx.Dir)

	// A second cleanup is a no-op, not an error.
	require.NoError(t, ctx.Cleanup())
}

func TestMaterializeCleansUpOnFailure(t *testing.T) {
	before := scratchDirs(t)

	spec := &imagespec.Spec{
		Name:      "app",
		CopyPaths: []string{"/etc/passwd"},
	}
	require.NoError(t, spec.ValidateAndComplete())

	_, err := Materialize(spec, t.TempDir())
	require.Error(t, err)

	require.Equal(t, before, scratchDirs(t))
}
