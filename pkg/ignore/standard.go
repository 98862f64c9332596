package ignore

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// StandardPatterns are excluded from every build context regardless of what
// the project's own ignore files say. Interpreter caches and notebook
// checkpoints never belong in an image.
var StandardPatterns = []string{
	"*.pyc",
	".cache",
	".cache/*",
	"__pycache__",
	"**/.ipynb_checkpoints/*",
}

// Standard matches the fixed exclusion set. Patterns are tried against both
// the relative path and the basename, so "__pycache__" applies at any depth.
type Standard struct {
	patterns []string
}

func NewStandard() *Standard {
	return &Standard{patterns: StandardPatterns}
}

func (s *Standard) Ignored(relPath string, isDir bool) bool {
	base := filepath.Base(relPath)
	for _, pattern := range s.patterns {
		if match, _ := doublestar.Match(pattern, relPath); match {
			return true
		}
		if match, _ := doublestar.Match(pattern, base); match {
			return true
		}
	}
	return false
}
