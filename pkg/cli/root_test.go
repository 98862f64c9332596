package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilnproject/kiln/pkg/imagespec"
)

func TestNewRootCommandSubcommands(t *testing.T) {
	cmd, err := NewRootCommand()
	require.NoError(t, err)

	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	require.Contains(t, names, "build")
	require.Contains(t, names, "dockerfile")
	require.Contains(t, names, "exists")
	require.Contains(t, names, "doctor")
}

func TestNewBuilderRegistryPrefersUvForLockSpecs(t *testing.T) {
	reg := newBuilderRegistry(t.TempDir(), false)
	require.Equal(t, []string{"default", "uv"}, reg.Names())

	lockSpec := &imagespec.Spec{Name: "app", Requirements: "uv.lock"}
	_, name, err := reg.Select(lockSpec)
	require.NoError(t, err)
	require.Equal(t, "uv", name)

	plainSpec := &imagespec.Spec{Name: "app", Requirements: "requirements.txt"}
	_, name, err = reg.Select(plainSpec)
	require.NoError(t, err)
	require.Equal(t, "default", name)
}
