package ignore

import (
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/kilnproject/kiln/pkg/util/files"
)

const GitIgnoreFilename = ".gitignore"

// Git applies the tree's .gitignore rules. The .git directory itself is
// always excluded, rules or no rules.
type Git struct {
	matcher *gitignore.GitIgnore
}

func NewGit(root string) (*Git, error) {
	path := filepath.Join(root, GitIgnoreFilename)
	exists, err := files.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &Git{}, nil
	}

	matcher, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, err
	}
	return &Git{matcher: matcher}, nil
}

func (g *Git) Ignored(relPath string, isDir bool) bool {
	if relPath == ".git" || strings.HasPrefix(relPath, ".git"+string(filepath.Separator)) {
		return true
	}
	if g.matcher == nil {
		return false
	}
	if g.matcher.MatchesPath(relPath) {
		return true
	}
	// Directory patterns like "build/" only match with the trailing slash.
	return isDir && g.matcher.MatchesPath(relPath+"/")
}
