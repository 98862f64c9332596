// Package config locates and loads the kiln.yaml build specification.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilnproject/kiln/pkg/errors"
	"github.com/kilnproject/kiln/pkg/global"
	"github.com/kilnproject/kiln/pkg/imagespec"
	"github.com/kilnproject/kiln/pkg/util/files"
)

const maxSearchDepth = 100

// GetSpec loads the spec for the current project: ascend from the working
// directory to the first kiln.yaml, then parse and validate it. Returns the
// spec and the directory holding the file, which anchors the spec's
// relative paths.
func GetSpec() (*imagespec.Spec, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	return GetSpecFrom(cwd)
}

func GetSpecFrom(startDir string) (*imagespec.Spec, string, error) {
	rootDir, err := findProjectRootDir(startDir)
	if err != nil {
		return nil, "", err
	}

	spec, err := loadSpecFromFile(filepath.Join(rootDir, global.ConfigFilename))
	if err != nil {
		return nil, "", err
	}
	if err := spec.ValidateAndComplete(); err != nil {
		return nil, "", err
	}
	return spec, rootDir, nil
}

func loadSpecFromFile(path string) (*imagespec.Spec, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to read %s: %w", path, err)
	}
	spec, err := imagespec.FromYAML(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

func findProjectRootDir(startDir string) (string, error) {
	dir := startDir
	for i := 0; i < maxSearchDepth; i++ {
		exists, err := files.Exists(filepath.Join(dir, global.ConfigFilename))
		if err != nil {
			return "", err
		}
		if exists {
			return dir, nil
		}
		if dir == "." || dir == "/" {
			return "", errors.SpecNotFound(fmt.Sprintf("%s not found in %s (or in any parent directories)", global.ConfigFilename, startDir))
		}
		dir = filepath.Dir(dir)
	}
	return "", errors.SpecNotFound(fmt.Sprintf("No %s found in parent directories", global.ConfigFilename))
}
