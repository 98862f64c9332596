// Package dockerfile renders the build recipe for an image spec and stages
// its supporting files into the build context.
package dockerfile

import (
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kilnproject/kiln/pkg/imagespec"
	"github.com/kilnproject/kiln/pkg/lockfile"
)

// Pinned helper stages. uv installs python packages, micromamba provisions
// the interpreter.
const (
	uvImage         = "ghcr.io/astral-sh/uv:0.5.31"
	micromambaImage = "mambaorg/micromamba:2.0.3-debian12-slim"
)

// ImageUser is the unprivileged user everything in the image runs as.
const ImageUser = "kiln"

const header = `#syntax=docker/dockerfile:1.5
FROM ` + uvImage + ` as uv
FROM ` + micromambaImage + ` as micromamba`

// caCertificates borrows the micromamba stage's CA bundle when the base
// image ships without one.
const caCertificates = `RUN --mount=from=micromamba,source=/etc/ssl/certs/ca-certificates.crt,target=/tmp/ca-certificates.crt \
    [ -f /etc/ssl/certs/ca-certificates.crt ] || \
    mkdir -p /etc/ssl/certs/ && cp /tmp/ca-certificates.crt /etc/ssl/certs/ca-certificates.crt`

const createUser = `RUN id -u ` + ImageUser + ` || useradd --create-home --shell /bin/bash ` + ImageUser + `
RUN chown -R ` + ImageUser + ` /root && chown -R ` + ImageUser + ` /home`

const nvidiaPaths = `WORKDIR /

# Adds nvidia just in case it exists
ENV PATH="$PATH:/usr/local/nvidia/bin:/usr/local/cuda/bin" \
    LD_LIBRARY_PATH="/usr/local/nvidia/lib64:$LD_LIBRARY_PATH"`

const tailSection = `WORKDIR /root
SHELL ["/bin/bash", "-c"]

USER ` + ImageUser + `
RUN mkdir -p $HOME && \
    echo "export PATH=$PATH" >> $HOME/.profile`

// Generator renders a Dockerfile for a spec. Rendering has side effects: the
// requirement artifacts, local packages, and copied trees the Dockerfile
// refers to are staged into the build context directory as sections are
// generated.
type Generator struct {
	Spec *imagespec.Spec

	// Dir is the project directory; relative requirement and copy paths
	// resolve against it.
	Dir string

	// staging is the build context being populated.
	staging string

	// local is set after the uv lock strategy has run.
	local *lockfile.Result
}

func NewGenerator(spec *imagespec.Spec, dir string, staging string) *Generator {
	return &Generator{
		Spec:    spec,
		Dir:     dir,
		staging: staging,
	}
}

// LocalPackages reports what the uv lock strategy staged, nil for the other
// strategies.
func (g *Generator) LocalPackages() *lockfile.Result {
	return g.local
}

// Generate renders the Dockerfile and stages everything it references.
// Section order is load-bearing: remote dependencies install strictly before
// local packages are copied in, so code-only changes never invalidate the
// dependency layer.
func (g *Generator) Generate() (string, error) {
	kind := g.Spec.RequirementsKind()

	install, err := g.installPython(kind)
	if err != nil {
		return "", err
	}
	python := g.provisionPython()
	sourceCopy, err := g.sourceCopy()
	if err != nil {
		return "", err
	}
	extraCopies, err := g.extraCopies()
	if err != nil {
		return "", err
	}
	run, err := g.runCommands()
	if err != nil {
		return "", err
	}
	entrypoint, err := g.entrypoint()
	if err != nil {
		return "", err
	}

	return strings.Join(filterEmpty([]string{
		header,
		"FROM " + g.baseImage(),
		"USER root",
		g.aptInstall(),
		caCertificates,
		createUser,
		python.section,
		g.userEnv(python),
		g.venvBootstrap(kind),
		g.copyLocalPackages(),
		install,
		nvidiaPaths,
		entrypoint,
		sourceCopy,
		extraCopies,
		run,
		tailSection,
	}), "\n\n") + "\n", nil
}

func (g *Generator) baseImage() string {
	if g.Spec.BaseImage != "" {
		return g.Spec.BaseImage
	}
	if g.Spec.Base != nil {
		return g.Spec.Base.ImageName()
	}
	return imagespec.DefaultBaseImage
}

func (g *Generator) aptInstall() string {
	if len(g.Spec.AptPackages) == 0 {
		return ""
	}
	return `RUN --mount=type=cache,sharing=locked,mode=0777,target=/var/cache/apt,id=apt \
    apt-get update && apt-get install -y --no-install-recommends \
    ` + strings.Join(g.Spec.AptPackages, " ")
}

// userEnv emits one ENV instruction carrying the interpreter configuration,
// the image id, and the spec's own variables, sorted for stable output.
func (g *Generator) userEnv(python pythonProvision) string {
	pairs := []string{}
	if python.extraPath != "" {
		pairs = append(pairs, `PATH="`+python.extraPath+`:$PATH"`)
	}
	pairs = append(pairs,
		"UV_PYTHON="+python.exec,
		"UV_LINK_MODE=copy",
		"UV_COMPILE_BYTECODE=1",
		"SSL_CERT_DIR=/etc/ssl/certs",
		"PYTHONPATH=/root",
		imagespec.ImageIDEnvVarName+"="+g.Spec.ID(),
	)
	for _, name := range slices.Sorted(maps.Keys(g.Spec.Env)) {
		pairs = append(pairs, name+"="+g.Spec.Env[name])
	}
	return "# Configure user space\nENV " + strings.Join(pairs, " \\\n    ")
}

func (g *Generator) entrypoint() (string, error) {
	if len(g.Spec.Entrypoint) == 0 {
		return "", nil
	}
	data, err := json.Marshal(g.Spec.Entrypoint)
	if err != nil {
		return "", err
	}
	return "ENTRYPOINT " + string(data), nil
}

func (g *Generator) runCommands() (string, error) {
	if len(g.Spec.Commands) == 0 {
		return "", nil
	}
	commands := []string{}
	for _, command := range g.Spec.Commands {
		command = strings.TrimSpace(command)
		if strings.Contains(command, "\n") {
			return "", fmt.Errorf(`One of the commands in 'commands' contains a new line, which won't work. You need to create a new list item in YAML prefixed with '-' for each command.

This is the offending line: %s`, command)
		}
		commands = append(commands, command)
	}
	return `RUN --mount=type=cache,sharing=locked,mode=0777,target=/root/.cache/uv,id=uv \
    --mount=from=uv,source=/uv,target=/usr/bin/uv ` + strings.Join(commands, " && "), nil
}

// requirementsPath resolves the spec's requirements file against the project
// directory.
func (g *Generator) requirementsPath() string {
	if filepath.IsAbs(g.Spec.Requirements) {
		return g.Spec.Requirements
	}
	return filepath.Join(g.Dir, g.Spec.Requirements)
}

func containerDir(p string) string {
	parent := path.Dir(p)
	if parent == "." {
		return "/root/"
	}
	return "/root/" + parent + "/"
}

func filterEmpty(list []string) []string {
	filtered := []string{}
	for _, s := range list {
		if s != "" {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
