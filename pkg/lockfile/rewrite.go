package lockfile

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kilnproject/kiln/pkg/ignore"
	"github.com/kilnproject/kiln/pkg/util/console"
	"github.com/kilnproject/kiln/pkg/util/files"
)

// repoRootMarker is the directory entry that identifies a repository root
// when walking up from a local package. A plain file also counts, which is
// what git writes for worktrees.
const repoRootMarker = ".git"

// LocalPackage is a package staged out of the lock file because its source
// lives on the local filesystem.
type LocalPackage struct {
	Name string
	// Path is the source path exactly as the lock file spelled it.
	Path string
	// Target is where the package resolves inside the container.
	Target   string
	Editable bool
}

// Result reports what Rewrite staged and rewrote.
type Result struct {
	// Local holds the staged packages in lock order.
	Local []LocalPackage
}

func (r *Result) HasLocal() bool {
	return len(r.Local) > 0
}

func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Local))
	for _, pkg := range r.Local {
		names = append(names, pkg.Name)
	}
	return names
}

// Rewrite reads the lock file at lockPath together with its adjacent
// pyproject.toml, copies every local package into stagingDir/local_packages
// at its repository-relative path, and writes the lock artifacts into
// stagingDir: the rewritten lock and manifest, a remote-only pair under
// distinct names, a plain requirements export of the remote packages, and a
// local package install list.
//
// The project itself, locked as ".", is skipped unless installProject is
// set. A local package path that does not exist, or one that sits outside
// any repository, fails the rewrite outright.
func Rewrite(lockPath string, installProject bool, stagingDir string) (*Result, error) {
	lock, err := ParseLockFile(lockPath)
	if err != nil {
		return nil, err
	}

	lockDir := filepath.Dir(lockPath)
	manifestPath := filepath.Join(lockDir, ManifestFilename)
	manifestExists, err := files.Exists(manifestPath)
	if err != nil {
		return nil, err
	}
	if !manifestExists {
		return nil, fmt.Errorf("%s does not exist next to %s", ManifestFilename, lockPath)
	}
	manifest, err := ParseManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	packagesDir := filepath.Join(stagingDir, "local_packages")
	if err := os.MkdirAll(packagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("Failed to create %s: %w", packagesDir, err)
	}

	result := &Result{}
	for _, pkg := range lock.Packages() {
		if !pkg.Source.Kind.IsLocal() {
			continue
		}
		if pkg.Source.Path == "." && !installProject {
			continue
		}

		target, err := stageLocalPackage(pkg, lockDir, packagesDir)
		if err != nil {
			return nil, err
		}

		lock.RewritePath(pkg.Source.Path, target)
		manifest.RewritePath(pkg.Source.Path, target)

		result.Local = append(result.Local, LocalPackage{
			Name:     pkg.Name,
			Path:     pkg.Source.Path,
			Target:   target,
			Editable: pkg.Source.Kind == SourceEditable,
		})
	}

	remoteLock := lock.RemoteOnly()
	remoteManifest := manifest.WithoutLocalSources(result.Names())

	artifacts := []struct {
		name string
		doc  interface{ Marshal() ([]byte, error) }
	}{
		{LockFilename, lock},
		{ManifestFilename, manifest},
		{RemoteLockFilename, remoteLock},
		{RemoteManifestFilename, remoteManifest},
	}
	for _, artifact := range artifacts {
		data, err := artifact.doc.Marshal()
		if err != nil {
			return nil, fmt.Errorf("Failed to serialize %s: %w", artifact.name, err)
		}
		if err := os.WriteFile(filepath.Join(stagingDir, artifact.name), data, 0o644); err != nil {
			return nil, fmt.Errorf("Failed to write %s: %w", artifact.name, err)
		}
	}

	if err := writeLines(filepath.Join(stagingDir, RequirementsFilename), remoteLock.ExportRequirements()); err != nil {
		return nil, err
	}
	if err := writeLines(filepath.Join(stagingDir, LocalPackagesFilename), result.installLines()); err != nil {
		return nil, err
	}

	return result, nil
}

// stageLocalPackage copies one local package into packagesDir and returns
// its in-container path.
func stageLocalPackage(pkg Package, lockDir string, packagesDir string) (string, error) {
	abs := pkg.Source.Path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(lockDir, abs)
	}
	abs = filepath.Clean(abs)

	exists, err := files.Exists(abs)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("Local package %s does not exist", abs)
	}
	isDir, err := files.IsDir(abs)
	if err != nil {
		return "", err
	}

	searchStart := abs
	if !isDir {
		searchStart = filepath.Dir(abs)
	}
	repoRoot, err := findRepoRoot(searchStart)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(repoRoot, abs)
	if err != nil {
		return "", err
	}

	staged := filepath.Join(packagesDir, rel)
	if isDir {
		group, err := ignore.DefaultGroup(abs)
		if err != nil {
			return "", err
		}
		if err := group.CopyTree(staged); err != nil {
			return "", err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
			return "", err
		}
		if err := files.CopyFile(abs, staged); err != nil {
			return "", err
		}
	}

	target := path.Join(ContainerPackagesDir, filepath.ToSlash(rel))
	console.Debugf("Staged local package %s at %s", pkg.Name, target)
	return target, nil
}

// installLines renders the local package install list, one target per line,
// editable packages marked with -e.
func (r *Result) installLines() []string {
	lines := make([]string, 0, len(r.Local))
	for _, pkg := range r.Local {
		if pkg.Editable {
			lines = append(lines, "-e "+pkg.Target)
		} else {
			lines = append(lines, pkg.Target)
		}
	}
	return lines
}

func writeLines(path string, lines []string) error {
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("Failed to write %s: %w", path, err)
	}
	return nil
}

func findRepoRoot(start string) (string, error) {
	dir := start
	for {
		exists, err := files.Exists(filepath.Join(dir, repoRootMarker))
		if err != nil {
			return "", err
		}
		if exists {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("Could not find repository root for %s: no %s in any parent directory", start, repoRootMarker)
		}
		dir = parent
	}
}
