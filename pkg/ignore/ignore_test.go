package ignore

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func walkFiles(t *testing.T, g *Group) []string {
	t.Helper()
	found := []string{}
	err := g.Walk(func(relPath string, entry fs.DirEntry) error {
		if entry.IsDir() {
			return nil
		}
		found = append(found, filepath.ToSlash(relPath))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(found)
	return found
}

func TestGroupComposesDialects(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		".gitignore":              "secret.txt\n",
		".dockerignore":           "*.log\n",
		"app.py":                  "print('hi')",
		"secret.txt":              "hunter2",
		"server.log":              "...",
		"pkg/__pycache__/app.pyc": "\x00",
		"pkg/module.py":           "x = 1",
	})

	group, err := DefaultGroup(dir)
	require.NoError(t, err)

	require.Equal(t, []string{
		".dockerignore",
		".gitignore",
		"app.py",
		"pkg/module.py",
	}, walkFiles(t, group))
}

func TestExclusionIsMonotonic(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		".gitignore":    "secret.txt\n",
		".dockerignore": "*.log\n",
		"app.py":        "print('hi')",
		"secret.txt":    "hunter2",
		"server.log":    "...",
		"cached.pyc":    "\x00",
	})

	git, err := NewGit(dir)
	require.NoError(t, err)
	docker, err := NewDocker(dir)
	require.NoError(t, err)

	gitOnly := walkFiles(t, NewGroup(dir, git))
	gitDocker := walkFiles(t, NewGroup(dir, git, docker))
	all := walkFiles(t, NewGroup(dir, git, docker, NewStandard()))

	require.Subset(t, gitOnly, gitDocker)
	require.Subset(t, gitDocker, all)
	require.NotContains(t, all, "cached.pyc")
	require.NotContains(t, gitDocker, "server.log")
	require.NotContains(t, gitOnly, "secret.txt")
}

func TestWalkPrunesIgnoredDirectories(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		".gitignore":         "vendor/\n",
		"vendor/lib/dep.py":  "x",
		"vendor/other.py":    "y",
		"src/main.py":        "z",
		".git/objects/ab/cd": "blob",
	})

	group, err := DefaultGroup(dir)
	require.NoError(t, err)

	found := walkFiles(t, group)
	require.Equal(t, []string{".gitignore", "src/main.py"}, found)
}

func TestCopyTreeStagesSurvivors(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		".dockerignore":       "notes.md\n",
		"app.py":              "print('hi')",
		"notes.md":            "skip me",
		"pkg/module.py":       "x = 1",
		"__pycache__/app.pyc": "\x00",
	})
	require.NoError(t, os.Chmod(filepath.Join(src, "app.py"), 0o755))

	group, err := DefaultGroup(src)
	require.NoError(t, err)
	require.NoError(t, group.CopyTree(dst))

	content, err := os.ReadFile(filepath.Join(dst, "pkg", "module.py"))
	require.NoError(t, err)
	require.Equal(t, "x = 1", string(content))

	info, err := os.Stat(filepath.Join(dst, "app.py"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dst, "notes.md"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dst, "__pycache__"))
	require.True(t, os.IsNotExist(err))
}

func TestStandardPatternsMatchAtAnyDepth(t *testing.T) {
	std := NewStandard()
	require.True(t, std.Ignored("__pycache__", true))
	require.True(t, std.Ignored("deep/nested/__pycache__", true))
	require.True(t, std.Ignored("pkg/module.pyc", false))
	require.True(t, std.Ignored("nb/.ipynb_checkpoints/draft.ipynb", false))
	require.False(t, std.Ignored("pkg/module.py", false))
}
