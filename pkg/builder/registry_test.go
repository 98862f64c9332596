package builder

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilnproject/kiln/pkg/imagespec"
)

type fakeBuilder struct {
	kinds    []imagespec.RequirementsKind
	allKinds bool
	built    []string
	err      error
}

func (b *fakeBuilder) Supports(kind imagespec.RequirementsKind) bool {
	return b.allKinds || slices.Contains(b.kinds, kind)
}

func (b *fakeBuilder) Build(ctx context.Context, spec *imagespec.Spec) (string, error) {
	b.built = append(b.built, spec.Name)
	return spec.ImageName(), b.err
}

func TestSelectExplicitName(t *testing.T) {
	reg := NewRegistry()
	wanted := &fakeBuilder{allKinds: true}
	reg.Register("default", &fakeBuilder{allKinds: true}, 10)
	reg.Register("custom", wanted, 0)

	b, name, err := reg.Select(&imagespec.Spec{Builder: "custom"})
	require.NoError(t, err)
	require.Equal(t, "custom", name)
	require.Same(t, wanted, b)
}

func TestSelectUnknownExplicitNameFails(t *testing.T) {
	reg := NewRegistry()
	reg.Register("default", &fakeBuilder{allKinds: true}, 0)
	reg.Register("uv", &fakeBuilder{allKinds: true}, 10)

	_, _, err := reg.Select(&imagespec.Spec{Builder: "envd"})
	require.ErrorContains(t, err, `Builder "envd" is not registered`)
	require.ErrorContains(t, err, "default, uv")
}

func TestSelectPrefersHigherPriority(t *testing.T) {
	reg := NewRegistry()
	reg.Register("default", &fakeBuilder{allKinds: true}, 0)
	reg.Register("uv", &fakeBuilder{kinds: []imagespec.RequirementsKind{imagespec.RequirementsUvLock}}, 10)

	_, name, err := reg.Select(&imagespec.Spec{Requirements: "uv.lock"})
	require.NoError(t, err)
	require.Equal(t, "uv", name)
}

func TestSelectSkipsIncompatibleBuilders(t *testing.T) {
	reg := NewRegistry()
	reg.Register("default", &fakeBuilder{allKinds: true}, 0)
	reg.Register("uv", &fakeBuilder{kinds: []imagespec.RequirementsKind{imagespec.RequirementsUvLock}}, 10)

	_, name, err := reg.Select(&imagespec.Spec{Requirements: "requirements.txt"})
	require.NoError(t, err)
	require.Equal(t, "default", name)
}

func TestSelectTieBreaksByRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("first", &fakeBuilder{allKinds: true}, 5)
	reg.Register("second", &fakeBuilder{allKinds: true}, 5)

	_, name, err := reg.Select(&imagespec.Spec{})
	require.NoError(t, err)
	require.Equal(t, "first", name)
}

func TestSelectFailsWithNoCompatibleBuilder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("uv", &fakeBuilder{kinds: []imagespec.RequirementsKind{imagespec.RequirementsUvLock}}, 10)

	_, _, err := reg.Select(&imagespec.Spec{Requirements: "poetry.lock"})
	require.ErrorContains(t, err, "No registered builder supports poetry.lock requirements")
}

func TestRegisterOverwritesByName(t *testing.T) {
	reg := NewRegistry()
	reg.Register("default", &fakeBuilder{allKinds: true}, 5)
	reg.Register("other", &fakeBuilder{allKinds: true}, 5)

	replacement := &fakeBuilder{allKinds: true}
	reg.Register("default", replacement, 5)

	b, ok := reg.Lookup("default")
	require.True(t, ok)
	require.Same(t, replacement, b)

	// overwriting does not forfeit the original position in tie-breaks
	_, name, err := reg.Select(&imagespec.Spec{})
	require.NoError(t, err)
	require.Equal(t, "default", name)
	require.Equal(t, []string{"default", "other"}, reg.Names())
}

func TestUnregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("default", &fakeBuilder{allKinds: true}, 0)
	reg.Unregister("default")

	_, ok := reg.Lookup("default")
	require.False(t, ok)
	require.Empty(t, reg.Names())
}

func TestBuildBuildsBaseFirst(t *testing.T) {
	reg := NewRegistry()
	fb := &fakeBuilder{allKinds: true}
	reg.Register("default", fb, 0)

	spec := &imagespec.Spec{
		Name: "app",
		Base: &imagespec.Spec{Name: "runtime-base"},
	}
	_, err := Build(t.Context(), reg, spec)
	require.NoError(t, err)
	require.Equal(t, []string{"runtime-base", "app"}, fb.built)
}

func TestBuildValidatesSpec(t *testing.T) {
	reg := NewRegistry()
	fb := &fakeBuilder{allKinds: true}
	reg.Register("default", fb, 0)

	_, err := Build(t.Context(), reg, &imagespec.Spec{Name: "app", CUDA: "12.1"})
	require.ErrorContains(t, err, "cuda")
	require.Empty(t, fb.built)
}
