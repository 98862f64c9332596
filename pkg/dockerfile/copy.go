package dockerfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilnproject/kiln/pkg/ignore"
	"github.com/kilnproject/kiln/pkg/util/files"
)

// sourceCopy stages the project source tree, filtered by the ignore rules,
// and emits one recursive copy of it.
func (g *Generator) sourceCopy() (string, error) {
	if !g.Spec.CopySourceTree {
		return "", nil
	}
	if g.Spec.SourceRoot == "" {
		return "", fmt.Errorf("source_root must be set when copy_source_tree is set")
	}

	root := g.Spec.SourceRoot
	if !filepath.IsAbs(root) {
		root = filepath.Join(g.Dir, root)
	}
	group, err := ignore.DefaultGroup(root)
	if err != nil {
		return "", err
	}
	if err := group.CopyTree(filepath.Join(g.staging, "src")); err != nil {
		return "", err
	}
	return "COPY --chown=" + ImageUser + " ./src /root", nil
}

// extraCopies stages the spec's explicit copy list. Sources stay inside the
// project: absolute paths and parent traversal are rejected before anything
// touches the filesystem.
func (g *Generator) extraCopies() (string, error) {
	for _, src := range g.Spec.CopyPaths {
		if filepath.IsAbs(src) || hasParentTraversal(src) {
			return "", fmt.Errorf("Absolute paths or paths with '..' are not allowed in copy: %s", src)
		}
	}

	lines := []string{}
	for _, src := range g.Spec.CopyPaths {
		srcPath := filepath.Join(g.Dir, filepath.FromSlash(src))
		exists, err := files.Exists(srcPath)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", fmt.Errorf("Copy path %s does not exist", src)
		}
		isDir, err := files.IsDir(srcPath)
		if err != nil {
			return "", err
		}

		staged := filepath.Join(g.staging, filepath.FromSlash(src))
		if isDir {
			// No ignore rules here: explicit copies take the tree as-is.
			if err := ignore.NewGroup(srcPath).CopyTree(staged); err != nil {
				return "", err
			}
			lines = append(lines, fmt.Sprintf("COPY --chown=%s %s /root/%s/", ImageUser, src, src))
		} else {
			if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
				return "", err
			}
			if err := files.CopyFile(srcPath, staged); err != nil {
				return "", err
			}
			lines = append(lines, fmt.Sprintf("COPY --chown=%s %s %s", ImageUser, src, containerDir(src)))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func hasParentTraversal(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
