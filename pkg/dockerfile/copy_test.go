package dockerfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilnproject/kiln/pkg/imagespec"
)

func TestSourceCopyStagesFilteredTree(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		".gitignore":                      "*.log\n",
		"app.py":                          "print('hi')\n",
		"server.log":                      "noise\n",
		"__pycache__/app.cpython-312.pyc": "",
	})
	staging := t.TempDir()
	spec := validatedSpec(t, &imagespec.Spec{
		Name:           "app",
		SourceRoot:     ".",
		CopySourceTree: true,
	})
	gen := NewGenerator(spec, dir, staging)

	actual, err := gen.Generate()
	require.NoError(t, err)

	require.Contains(t, actual, "COPY --chown=kiln ./src /root")
	require.FileExists(t, filepath.Join(staging, "src", "app.py"))
	require.NoFileExists(t, filepath.Join(staging, "src", "server.log"))
	require.NoDirExists(t, filepath.Join(staging, "src", "__pycache__"))
}

func TestExtraCopiesStageFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"notes.txt":          "root file\n",
		"data/weights.bin":   "blob\n",
		"assets/logo.svg":    "<svg/>\n",
		"assets/fonts/a.ttf": "font\n",
	})
	staging := t.TempDir()
	spec := validatedSpec(t, &imagespec.Spec{
		Name:      "app",
		CopyPaths: []string{"notes.txt", "data/weights.bin", "assets"},
	})
	gen := NewGenerator(spec, dir, staging)

	actual, err := gen.Generate()
	require.NoError(t, err)

	require.Contains(t, actual, `COPY --chown=kiln notes.txt /root/
COPY --chown=kiln data/weights.bin /root/data/
COPY --chown=kiln assets /root/assets/`)

	require.FileExists(t, filepath.Join(staging, "notes.txt"))
	require.FileExists(t, filepath.Join(staging, "data", "weights.bin"))
	require.FileExists(t, filepath.Join(staging, "assets", "logo.svg"))
	require.FileExists(t, filepath.Join(staging, "assets", "fonts", "a.ttf"))
}

func TestExtraCopiesRejectAbsolutePaths(t *testing.T) {
	staging := t.TempDir()
	spec := validatedSpec(t, &imagespec.Spec{
		Name:      "app",
		CopyPaths: []string{"/etc/passwd"},
	})
	gen := NewGenerator(spec, t.TempDir(), staging)

	_, err := gen.Generate()
	require.ErrorContains(t, err, "Absolute paths or paths with '..' are not allowed")

	// Validation fires before anything is staged.
	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExtraCopiesRejectParentTraversal(t *testing.T) {
	spec := validatedSpec(t, &imagespec.Spec{
		Name:      "app",
		CopyPaths: []string{"data/../../secrets"},
	})
	gen := NewGenerator(spec, t.TempDir(), t.TempDir())

	_, err := gen.Generate()
	require.ErrorContains(t, err, "Absolute paths or paths with '..' are not allowed")
}

func TestExtraCopiesFailOnMissingSource(t *testing.T) {
	spec := validatedSpec(t, &imagespec.Spec{
		Name:      "app",
		CopyPaths: []string{"missing.txt"},
	})
	gen := NewGenerator(spec, t.TempDir(), t.TempDir())

	_, err := gen.Generate()
	require.ErrorContains(t, err, "Copy path missing.txt does not exist")
}
