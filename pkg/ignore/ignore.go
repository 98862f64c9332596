// Package ignore decides which files in a source tree are eligible for a
// build context. Several ignore dialects compose into a Group; a path is
// excluded as soon as any dialect excludes it, so adding a dialect can only
// shrink the staged file set.
package ignore

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kilnproject/kiln/pkg/util/files"
)

// Dialect is one convention for excluding paths. Paths are relative to the
// tree root the dialect was constructed for.
type Dialect interface {
	Ignored(relPath string, isDir bool) bool
}

// Group is an ordered composition of dialects over one tree root.
type Group struct {
	root     string
	dialects []Dialect
}

func NewGroup(root string, dialects ...Dialect) *Group {
	return &Group{root: root, dialects: dialects}
}

// DefaultGroup is the composition used for staging source trees and local
// packages: .gitignore rules, .dockerignore rules, and the standard
// exclusions.
func DefaultGroup(root string) (*Group, error) {
	git, err := NewGit(root)
	if err != nil {
		return nil, err
	}
	docker, err := NewDocker(root)
	if err != nil {
		return nil, err
	}
	return NewGroup(root, git, docker, NewStandard()), nil
}

// Ignored reports whether any dialect excludes the path.
func (g *Group) Ignored(relPath string, isDir bool) bool {
	for _, d := range g.dialects {
		if d.Ignored(relPath, isDir) {
			return true
		}
	}
	return false
}

// Walk visits everything under the root that survives the group, pruning
// ignored directories. fn receives paths relative to the root.
func (g *Group) Walk(fn func(relPath string, entry fs.DirEntry) error) error {
	return filepath.WalkDir(g.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(g.root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if g.Ignored(relPath, entry.IsDir()) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		return fn(relPath, entry)
	})
}

// CopyTree copies every surviving file into dst, preserving relative layout
// and permission bits. Directories are created only as needed, so ignored
// subtrees leave no empty shells behind.
func (g *Group) CopyTree(dst string) error {
	return g.Walk(func(relPath string, entry fs.DirEntry) error {
		if entry.IsDir() {
			return nil
		}
		target := filepath.Join(dst, relPath)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return files.CopyFile(filepath.Join(g.root, relPath), target)
	})
}
