package lockfile

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is a parsed pyproject.toml. Like LockFile it keeps the whole
// document tree and mutates it in place.
type Manifest struct {
	doc map[string]any
}

func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	manifest, err := ManifestFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return manifest, nil
}

func ManifestFromBytes(data []byte) (*Manifest, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &Manifest{doc: doc}, nil
}

// RewritePath replaces every path alias equal to old with new, most
// relevantly under [tool.uv.sources].
func (m *Manifest) RewritePath(old, new string) {
	rewritePathKeys(m.doc, old, new)
}

// WithoutLocalSources returns a manifest with the named packages removed
// from [tool.uv.sources] and from the project dependency lists, leaving a
// manifest that resolves against registries alone.
func (m *Manifest) WithoutLocalSources(names []string) *Manifest {
	dropped := make(map[string]bool, len(names))
	for _, name := range names {
		dropped[name] = true
	}

	out := deepCopy(m.doc).(map[string]any)

	if tool, ok := out["tool"].(map[string]any); ok {
		if uv, ok := tool["uv"].(map[string]any); ok {
			if sources, ok := uv["sources"].(map[string]any); ok {
				for name := range sources {
					if dropped[name] {
						delete(sources, name)
					}
				}
			}
		}
	}

	if project, ok := out["project"].(map[string]any); ok {
		if deps, ok := project["dependencies"].([]any); ok {
			project["dependencies"] = filterDependencies(deps, dropped)
		}
		if optional, ok := project["optional-dependencies"].(map[string]any); ok {
			for group, deps := range optional {
				if list, ok := deps.([]any); ok {
					optional[group] = filterDependencies(list, dropped)
				}
			}
		}
	}

	return &Manifest{doc: out}
}

func (m *Manifest) Marshal() ([]byte, error) {
	return toml.Marshal(m.doc)
}

// requirementName captures the distribution name at the head of a PEP 508
// requirement string.
var requirementName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)

func filterDependencies(deps []any, dropped map[string]bool) []any {
	kept := make([]any, 0, len(deps))
	for _, dep := range deps {
		if spec, ok := dep.(string); ok {
			if name := requirementName.FindString(spec); dropped[name] {
				continue
			}
		}
		kept = append(kept, dep)
	}
	return kept
}

// pathKeys are the table keys whose string values name filesystem locations
// of local packages, in both lock files and manifests.
var pathKeys = map[string]bool{
	"directory": true,
	"editable":  true,
	"path":      true,
}

func rewritePathKeys(node any, old, new string) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if s, ok := child.(string); ok {
				if s == old && pathKeys[key] {
					v[key] = new
				}
				continue
			}
			rewritePathKeys(child, old, new)
		}
	case []any:
		for _, child := range v {
			rewritePathKeys(child, old, new)
		}
	}
}

func deepCopy(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}
