package ignore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

const DockerIgnoreFilename = ".dockerignore"

// Docker applies the tree's .dockerignore rules with the build tool's own
// pattern semantics, exclusions included.
type Docker struct {
	matcher *patternmatcher.PatternMatcher
}

func NewDocker(root string) (*Docker, error) {
	f, err := os.Open(filepath.Join(root, DockerIgnoreFilename))
	if errors.Is(err, os.ErrNotExist) {
		return &Docker{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", DockerIgnoreFilename, err)
	}

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude patterns: %w", err)
	}
	return &Docker{matcher: matcher}, nil
}

func (d *Docker) Ignored(relPath string, isDir bool) bool {
	if d.matcher == nil {
		return false
	}
	ignored, err := d.matcher.MatchesOrParentMatches(relPath)
	if err != nil {
		// Patterns were validated at construction; a match error here means
		// the path is unusable anyway.
		return false
	}
	return ignored
}
