package dockerfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilnproject/kiln/pkg/imagespec"
	"github.com/kilnproject/kiln/pkg/lockfile"
	"github.com/kilnproject/kiln/pkg/util/console"
	"github.com/kilnproject/kiln/pkg/util/files"
)

const (
	micromambaPython = "/opt/micromamba/envs/runtime/bin/python"
	micromambaBin    = "/opt/micromamba/envs/runtime/bin"
)

// requirementsUvFilename holds the merged requirement list for the plain
// install strategy.
const requirementsUvFilename = "requirements_uv.txt"

type pythonProvision struct {
	// exec is the interpreter uv is pointed at.
	exec    string
	section string
	// extraPath is prepended to PATH so the provisioned environment wins.
	extraPath string
}

// provisionPython either trusts a caller-supplied interpreter or creates one
// with micromamba. A spec naming python_exec never carries conda fields;
// validation rejects that combination up front.
func (g *Generator) provisionPython() pythonProvision {
	if g.Spec.PythonExec != "" {
		return pythonProvision{exec: g.Spec.PythonExec}
	}

	create := []string{"-c", "conda-forge"}
	for _, channel := range g.Spec.CondaChannels {
		create = append(create, "-c", channel)
	}
	create = append(create, "python="+g.Spec.PythonVersion)
	create = append(create, g.Spec.CondaPackages...)

	section := `RUN --mount=type=cache,sharing=locked,mode=0777,target=/opt/micromamba/pkgs,id=micromamba \
    --mount=from=micromamba,source=/usr/bin/micromamba,target=/usr/bin/micromamba \
    micromamba config set use_lockfiles False && \
    micromamba create -n runtime --root-prefix /opt/micromamba \
    ` + strings.Join(create, " ")

	return pythonProvision{
		exec:      micromambaPython,
		section:   section,
		extraPath: micromambaBin,
	}
}

// installPython renders the dependency-install instruction for the spec's
// requirement source. Each lock dialect gets its own strategy; everything
// else funnels into a single plain uv install layer.
func (g *Generator) installPython(kind imagespec.RequirementsKind) (string, error) {
	args := g.pipInstallArgs()
	switch kind {
	case imagespec.RequirementsUvLock:
		return g.uvLockInstall(args)
	case imagespec.RequirementsPoetryLock:
		return g.poetryInstall(args)
	default:
		return g.plainInstall(args)
	}
}

func (g *Generator) pipInstallArgs() []string {
	args := []string{}
	if g.Spec.PipIndex != "" {
		args = append(args, "--index-url "+g.Spec.PipIndex)
	}
	for _, url := range g.Spec.PipExtraIndexURLs {
		args = append(args, "--extra-index-url "+url)
	}
	if g.Spec.PipExtraArgs != "" {
		args = append(args, g.Spec.PipExtraArgs)
	}
	return args
}

// uvLockInstall splits the lock into remote and local halves and renders the
// local half's install layer. The remote half installs earlier, in the venv
// bootstrap, so it caches independently of local source changes.
func (g *Generator) uvLockInstall(args []string) (string, error) {
	console.Warnf("uv.lock support is experimental")
	if len(g.Spec.Packages) > 0 {
		return "", fmt.Errorf("Support for uv.lock files and packages is mutually exclusive")
	}

	result, err := lockfile.Rewrite(g.requirementsPath(), g.Spec.InstallProject, g.staging)
	if err != nil {
		return "", err
	}
	g.local = result

	if !result.HasLocal() {
		return "", nil
	}
	args = append(args, "--requirement "+lockfile.LocalPackagesFilename)
	return `RUN --mount=type=cache,sharing=locked,mode=0777,target=/root/.cache/uv,id=uv \
    --mount=from=uv,source=/uv,target=/usr/bin/uv \
    --mount=type=bind,target=local_packages.txt,src=local_packages.txt \
    uv pip install ` + strings.Join(args, " "), nil
}

// venvBootstrap creates the runtime venv and syncs the remote-only
// requirement export into it. Lock builds only.
func (g *Generator) venvBootstrap(kind imagespec.RequirementsKind) string {
	if kind != imagespec.RequirementsUvLock {
		return ""
	}
	return `WORKDIR /root
RUN --mount=type=cache,sharing=locked,mode=0777,target=/root/.cache/uv,id=uv \
    --mount=from=uv,source=/uv,target=/usr/bin/uv \
    --mount=type=bind,target=requirements.txt,src=requirements.txt \
    uv venv && uv pip sync requirements.txt

ENV PATH="/root/.venv/bin:$PATH" \
    UV_PYTHON=/root/.venv/bin/python`
}

func (g *Generator) copyLocalPackages() string {
	if g.local == nil || !g.local.HasLocal() {
		return ""
	}
	return "COPY --chown=" + ImageUser + " local_packages " + lockfile.ContainerPackagesDir
}

// poetryInstall recreates the whole environment with poetry inside the
// image. There is no remote/local split here; the dialect has no per-package
// source table to split on.
func (g *Generator) poetryInstall(args []string) (string, error) {
	console.Warnf("poetry.lock support is experimental")
	if len(g.Spec.Packages) > 0 {
		return "", fmt.Errorf("Support for poetry.lock files and packages is mutually exclusive")
	}

	lockPath := g.requirementsPath()
	manifestPath := filepath.Join(filepath.Dir(lockPath), lockfile.ManifestFilename)
	exists, err := files.Exists(manifestPath)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%s does not exist next to %s", lockfile.ManifestFilename, lockPath)
	}
	if err := files.CopyFile(lockPath, filepath.Join(g.staging, "poetry.lock")); err != nil {
		return "", err
	}
	if err := files.CopyFile(manifestPath, filepath.Join(g.staging, lockfile.ManifestFilename)); err != nil {
		return "", err
	}

	// --no-root: the project itself is copied in later, not installed.
	args = append(args, "--no-root")
	return `RUN --mount=type=cache,sharing=locked,mode=0777,target=/root/.cache/uv,id=uv \
    --mount=from=uv,source=/uv,target=/usr/bin/uv \
    uv pip install poetry

ENV POETRY_CACHE_DIR=/tmp/poetry_cache \
    POETRY_VIRTUALENVS_IN_PROJECT=true

# poetry install does not work running in /, so we move to /root to create the venv
WORKDIR /root

RUN --mount=type=cache,sharing=locked,mode=0777,target=/tmp/poetry_cache,id=poetry \
    --mount=type=bind,target=poetry.lock,src=poetry.lock \
    --mount=type=bind,target=pyproject.toml,src=pyproject.toml \
    poetry install ` + strings.Join(args, " ") + `

WORKDIR /

ENV PATH="/root/.venv/bin:$PATH" \
    UV_PYTHON=/root/.venv/bin/python`, nil
}

// plainInstall merges the requirements file with inline packages into a
// single staged requirement list and installs it in one layer.
func (g *Generator) plainInstall(args []string) (string, error) {
	requirements := []string{}
	if g.Spec.Requirements != "" {
		data, err := os.ReadFile(g.requirementsPath())
		if err != nil {
			return "", fmt.Errorf("Failed to read %s: %w", g.Spec.Requirements, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				requirements = append(requirements, line)
			}
		}
	}
	requirements = append(requirements, g.Spec.Packages...)
	if len(requirements) == 0 {
		return "", nil
	}

	staged := filepath.Join(g.staging, requirementsUvFilename)
	if err := os.WriteFile(staged, []byte(strings.Join(requirements, "\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("Failed to write %s: %w", requirementsUvFilename, err)
	}

	args = append(args, "--requirement "+requirementsUvFilename)
	return `RUN --mount=type=cache,sharing=locked,mode=0777,target=/root/.cache/uv,id=uv \
    --mount=from=uv,source=/uv,target=/usr/bin/uv \
    --mount=type=bind,target=requirements_uv.txt,src=requirements_uv.txt \
    uv pip install ` + strings.Join(args, " "), nil
}
