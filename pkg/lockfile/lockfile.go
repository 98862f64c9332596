// Package lockfile parses uv lock files and their pyproject manifests, and
// rewrites local path dependencies so they resolve at a fixed location inside
// the container. The lock is kept as a full document tree, so fields kiln
// doesn't know about survive a parse-mutate-serialize round trip.
package lockfile

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ContainerPackagesDir is where copied local packages land in the image.
// Rewritten lock entries point below this prefix.
const ContainerPackagesDir = "/root/local_packages"

// Artifact filenames written into the build context. The remote pair carries
// distinct names so it can sit next to the rewritten originals.
const (
	LockFilename           = "uv.lock"
	ManifestFilename       = "pyproject.toml"
	RemoteLockFilename     = "uv_remote.lock"
	RemoteManifestFilename = "pyproject_remote.toml"
	RequirementsFilename   = "requirements.txt"
	LocalPackagesFilename  = "local_packages.txt"
)

// SourceKind is the variant of a package's source table.
type SourceKind int

const (
	// SourceRegistry covers everything resolvable without the local
	// filesystem: index registries, direct URLs, git pins.
	SourceRegistry SourceKind = iota
	SourceDirectory
	SourceEditable
	// SourcePath is a direct path dependency, usually a wheel or sdist
	// sitting on disk.
	SourcePath
	// SourceVirtual marks a non-packaged workspace root. It is neither
	// installable nor remote, so it is skipped on both sides of the split.
	SourceVirtual
)

func (k SourceKind) String() string {
	switch k {
	case SourceRegistry:
		return "registry"
	case SourceDirectory:
		return "directory"
	case SourceEditable:
		return "editable"
	case SourcePath:
		return "path"
	case SourceVirtual:
		return "virtual"
	}
	return "unknown"
}

// IsLocal reports whether the package's files come from a filesystem path
// that has to be copied into the build context.
func (k SourceKind) IsLocal() bool {
	return k == SourceDirectory || k == SourceEditable || k == SourcePath
}

type Source struct {
	Kind SourceKind
	// Path is set for directory/editable/virtual sources, relative to the
	// lock file's directory.
	Path string
	// URL is set for registry sources.
	URL string
}

type Package struct {
	Name    string
	Version string
	Source  Source
}

// LockFile is a parsed uv.lock. The document tree is authoritative; Packages
// is a typed view derived from it.
type LockFile struct {
	doc map[string]any
}

func ParseLockFile(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	lock, err := LockFileFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lock, nil
}

func LockFileFromBytes(data []byte) (*LockFile, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &LockFile{doc: doc}, nil
}

// Packages returns the lock's package entries in document order.
func (l *LockFile) Packages() []Package {
	raw, ok := l.doc["package"].([]any)
	if !ok {
		return nil
	}

	pkgs := make([]Package, 0, len(raw))
	for _, entry := range raw {
		table, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		pkgs = append(pkgs, Package{
			Name:    stringField(table, "name"),
			Version: stringField(table, "version"),
			Source:  sourceOf(table),
		})
	}
	return pkgs
}

// RewritePath replaces every directory/editable/path reference equal to old
// with new, wherever it appears in the document.
func (l *LockFile) RewritePath(old, new string) {
	rewritePathKeys(l.doc, old, new)
}

// RemoteOnly returns a lock whose package list holds only registry-resolved
// packages; everything else about the document is carried over unchanged.
func (l *LockFile) RemoteOnly() *LockFile {
	out := make(map[string]any, len(l.doc))
	for k, v := range l.doc {
		out[k] = v
	}

	raw, _ := l.doc["package"].([]any)
	kept := make([]any, 0, len(raw))
	for _, entry := range raw {
		if table, ok := entry.(map[string]any); ok && sourceOf(table).Kind != SourceRegistry {
			continue
		}
		kept = append(kept, entry)
	}
	out["package"] = kept

	return &LockFile{doc: out}
}

// ExportRequirements renders name==version lines for every registry package.
// This is the plain-requirements view of the remote side of the lock, fed to
// the early cacheable install layer.
func (l *LockFile) ExportRequirements() []string {
	var reqs []string
	for _, pkg := range l.Packages() {
		if pkg.Source.Kind != SourceRegistry {
			continue
		}
		if pkg.Name == "" || pkg.Version == "" {
			continue
		}
		reqs = append(reqs, fmt.Sprintf("%s==%s", pkg.Name, pkg.Version))
	}
	return reqs
}

func (l *LockFile) Marshal() ([]byte, error) {
	return toml.Marshal(l.doc)
}

func sourceOf(table map[string]any) Source {
	src, ok := table["source"].(map[string]any)
	if !ok {
		return Source{Kind: SourceRegistry}
	}
	if path, ok := src["directory"].(string); ok {
		return Source{Kind: SourceDirectory, Path: path}
	}
	if path, ok := src["editable"].(string); ok {
		return Source{Kind: SourceEditable, Path: path}
	}
	if path, ok := src["path"].(string); ok {
		return Source{Kind: SourcePath, Path: path}
	}
	if path, ok := src["virtual"].(string); ok {
		return Source{Kind: SourceVirtual, Path: path}
	}
	url, _ := src["registry"].(string)
	return Source{Kind: SourceRegistry, URL: url}
}

func stringField(table map[string]any, key string) string {
	s, _ := table[key].(string)
	return s
}
