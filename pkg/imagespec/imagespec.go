// Package imagespec defines the declarative description of a container image
// and everything derived from it: validation, content-addressed tags, and
// loading from kiln.yaml.
package imagespec

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// DefaultBaseImage is used when a spec names neither a base image nor a base
// spec.
const DefaultBaseImage = "debian:bookworm-slim"

// DefaultPythonVersion is the interpreter provisioned when the spec doesn't
// pin one.
const DefaultPythonVersion = "3.12"

// ImageIDEnvVarName is set inside every built image to the id of the spec
// that produced it.
const ImageIDEnvVarName = "KILN_IMAGE_ID"

// Spec is a declarative description of a container image. Two specs with
// identical fields always produce the same image tag and the same build
// recipe, so builds can be skipped when the tag already exists remotely.
//
// Treat a Spec as immutable once ValidateAndComplete has run.
type Spec struct {
	Name     string `json:"name,omitempty" yaml:"name"`
	Registry string `json:"registry,omitempty" yaml:"registry"`

	// BaseImage and Base are mutually exclusive. Base is a full spec that is
	// built first; its image name becomes this image's FROM.
	BaseImage string `json:"base_image,omitempty" yaml:"base_image"`
	Base      *Spec  `json:"base,omitempty" yaml:"base"`

	PythonVersion string `json:"python_version,omitempty" yaml:"python_version"`
	PythonExec    string `json:"python_exec,omitempty" yaml:"python_exec"`

	// Packages is an inline requirement list. Requirements points at a file:
	// either a plain requirements.txt, a uv.lock, or a poetry.lock, told
	// apart by basename. At most one of the two may be set.
	Packages     []string `json:"packages,omitempty" yaml:"packages"`
	Requirements string   `json:"requirements,omitempty" yaml:"requirements"`

	CondaPackages []string `json:"conda_packages,omitempty" yaml:"conda_packages"`
	CondaChannels []string `json:"conda_channels,omitempty" yaml:"conda_channels"`
	AptPackages   []string `json:"apt_packages,omitempty" yaml:"apt_packages"`

	Env map[string]string `json:"env,omitempty" yaml:"env"`

	SourceRoot     string   `json:"source_root,omitempty" yaml:"source_root"`
	CopySourceTree bool     `json:"copy_source_tree,omitempty" yaml:"copy_source_tree"`
	CopyPaths      []string `json:"copy,omitempty" yaml:"copy"`

	Commands   []string `json:"commands,omitempty" yaml:"commands"`
	Entrypoint []string `json:"entrypoint,omitempty" yaml:"entrypoint"`

	Platform string `json:"platform,omitempty" yaml:"platform"`

	// Builder names a registered builder explicitly. Left empty, the
	// registry picks the highest-priority builder compatible with the spec.
	Builder  string `json:"builder,omitempty" yaml:"builder"`
	UseDepot bool   `json:"use_depot,omitempty" yaml:"use_depot"`

	// InstallProject includes the project root package (".") from a lock
	// file. Off by default: the source tree is normally copied into the
	// image instead of installed.
	InstallProject bool `json:"install_project,omitempty" yaml:"install_project"`

	PipIndex          string   `json:"pip_index,omitempty" yaml:"pip_index"`
	PipExtraIndexURLs []string `json:"pip_extra_index_url,omitempty" yaml:"pip_extra_index_url"`
	PipExtraArgs      string   `json:"pip_extra_args,omitempty" yaml:"pip_extra_args"`

	// CUDA and CUDNN are rejected at validation. GPU support arrives through
	// packages or a CUDA-enabled base image, never through these fields.
	CUDA  string `json:"cuda,omitempty" yaml:"cuda"`
	CUDNN string `json:"cudnn,omitempty" yaml:"cudnn"`
}

// RequirementsKind is the requirement-source variant a spec declares. It is
// classified here, once, from the basename of Requirements; every consumer
// switches on the Kind instead of re-inspecting file names.
type RequirementsKind int

const (
	RequirementsNone RequirementsKind = iota
	RequirementsPlain
	RequirementsUvLock
	RequirementsPoetryLock
)

func (k RequirementsKind) String() string {
	switch k {
	case RequirementsNone:
		return "none"
	case RequirementsPlain:
		return "requirements.txt"
	case RequirementsUvLock:
		return "uv.lock"
	case RequirementsPoetryLock:
		return "poetry.lock"
	}
	return "unknown"
}

// RequirementsKind reports which requirement source the spec carries.
func (s *Spec) RequirementsKind() RequirementsKind {
	if s.Requirements == "" {
		return RequirementsNone
	}
	switch filepath.Base(s.Requirements) {
	case "uv.lock":
		return RequirementsUvLock
	case "poetry.lock":
		return RequirementsPoetryLock
	}
	return RequirementsPlain
}

// IsLock reports whether the kind is a fully-resolved lock file.
func (k RequirementsKind) IsLock() bool {
	return k == RequirementsUvLock || k == RequirementsPoetryLock
}

func DefaultSpec() *Spec {
	return &Spec{
		Name:          "kiln",
		PythonVersion: DefaultPythonVersion,
		Platform:      "linux/amd64",
	}
}

// FromYAML parses a kiln.yaml document into a Spec, schema-validating it
// first so typos surface as field-level errors rather than silent zero
// values.
func FromYAML(contents []byte) (*Spec, error) {
	if len(contents) != 0 {
		if err := Validate(string(contents), ""); err != nil {
			return nil, err
		}
	}
	spec := DefaultSpec()
	if err := yaml.Unmarshal(contents, spec); err != nil {
		return nil, fmt.Errorf("Failed to parse spec yaml: %w", err)
	}
	return spec, nil
}

// Tag is the content-derived image tag.
func (s *Spec) Tag() string {
	return s.ID()
}

// ImageName is the full reference the build is tagged with, including the
// registry when one is configured.
func (s *Spec) ImageName() string {
	if s.Registry != "" {
		return fmt.Sprintf("%s/%s:%s", s.Registry, s.Name, s.Tag())
	}
	return fmt.Sprintf("%s:%s", s.Name, s.Tag())
}
