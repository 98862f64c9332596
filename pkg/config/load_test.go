package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilnproject/kiln/pkg/errors"
)

func TestGetSpecFromFindsConfigInParent(t *testing.T) {
	dir := t.TempDir()
	contents := `name: trainer
registry: ghcr.io/acme
packages:
  - requests
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kiln.yaml"), []byte(contents), 0o644))
	nested := filepath.Join(dir, "src", "trainer")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	spec, rootDir, err := GetSpecFrom(nested)
	require.NoError(t, err)
	require.Equal(t, dir, rootDir)
	require.Equal(t, "trainer", spec.Name)
	require.Equal(t, []string{"requests"}, spec.Packages)
	require.Equal(t, "linux/amd64", spec.Platform, "validation fills defaults")
}

func TestGetSpecFromMissingConfig(t *testing.T) {
	_, _, err := GetSpecFrom(t.TempDir())
	require.Error(t, err)
	require.True(t, errors.IsSpecNotFound(err))
	require.ErrorContains(t, err, "kiln.yaml not found")
}

func TestGetSpecFromRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kiln.yaml"), []byte("imagename: typo\n"), 0o644))

	_, _, err := GetSpecFrom(dir)
	require.ErrorContains(t, err, "imagename")
}

func TestGetSpecFromRejectsInvalidSpec(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kiln.yaml"), []byte("cuda: \"12.1\"\n"), 0o644))

	_, _, err := GetSpecFrom(dir)
	require.ErrorContains(t, err, "cuda")
}
