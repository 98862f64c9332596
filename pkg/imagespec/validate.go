package imagespec

import (
	"errors"
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

const cudaHelpText = `cuda and cudnn do not need to be specified. If you are installing ` +
	`a GPU accelerated library from a package index, it will likely bring CUDA with it. ` +
	`With conda you can install CUDA from the "nvidia" channel by adding "nvidia" to ` +
	`conda_channels and the packages you need to conda_packages. If you require CUDA for ` +
	`non-python dependencies, set a base_image with CUDA preinstalled.`

// ValidateAndComplete checks field combinations and fills in defaults. It
// performs no filesystem access; anything that needs the lock file on disk
// is deferred to the rewriter.
func (s *Spec) ValidateAndComplete() error {
	errs := []error{}

	if s.Name == "" {
		s.Name = "kiln"
	}
	if s.Platform == "" {
		s.Platform = "linux/amd64"
	}
	if s.PythonVersion == "" {
		s.PythonVersion = DefaultPythonVersion
	}

	if v, err := goversion.NewVersion(s.PythonVersion); err != nil {
		errs = append(errs, fmt.Errorf("invalid python_version %q: %w", s.PythonVersion, err))
	} else if v.Segments()[0] != 3 {
		errs = append(errs, fmt.Errorf("python_version must be a 3.x release, got %s", s.PythonVersion))
	}

	if s.CUDA != "" || s.CUDNN != "" {
		errs = append(errs, errors.New(cudaHelpText))
	}

	if len(s.Packages) > 0 && s.Requirements != "" {
		kind := s.RequirementsKind()
		if kind.IsLock() {
			errs = append(errs, fmt.Errorf("Support for %s files and packages is mutually exclusive", kind))
		} else {
			errs = append(errs, errors.New("Only one of packages or requirements can be set"))
		}
	}

	if s.PythonExec != "" {
		if len(s.CondaChannels) > 0 {
			errs = append(errs, errors.New("conda_channels is not supported with python_exec"))
		}
		if len(s.CondaPackages) > 0 {
			errs = append(errs, errors.New("conda_packages is not supported with python_exec"))
		}
	}

	if s.BaseImage != "" && s.Base != nil {
		errs = append(errs, errors.New("Only one of base_image or base can be set"))
	}
	if s.Base != nil {
		if err := s.Base.ValidateAndComplete(); err != nil {
			errs = append(errs, fmt.Errorf("in base spec: %w", err))
		}
	}

	if s.CopySourceTree && s.SourceRoot == "" {
		errs = append(errs, errors.New("source_root must be set when copy_source_tree is set"))
	}

	return errors.Join(errs...)
}

// SetFields lists the yaml names of fields carrying non-zero values.
// Builders use it to warn about (or reject) parameters they don't support.
func (s *Spec) SetFields() []string {
	var set []string
	add := func(name string, isSet bool) {
		if isSet {
			set = append(set, name)
		}
	}

	add("name", s.Name != "")
	add("registry", s.Registry != "")
	add("base_image", s.BaseImage != "")
	add("base", s.Base != nil)
	add("python_version", s.PythonVersion != "")
	add("python_exec", s.PythonExec != "")
	add("packages", len(s.Packages) > 0)
	add("requirements", s.Requirements != "")
	add("conda_packages", len(s.CondaPackages) > 0)
	add("conda_channels", len(s.CondaChannels) > 0)
	add("apt_packages", len(s.AptPackages) > 0)
	add("env", len(s.Env) > 0)
	add("source_root", s.SourceRoot != "")
	add("copy_source_tree", s.CopySourceTree)
	add("copy", len(s.CopyPaths) > 0)
	add("commands", len(s.Commands) > 0)
	add("entrypoint", len(s.Entrypoint) > 0)
	add("platform", s.Platform != "")
	add("builder", s.Builder != "")
	add("use_depot", s.UseDepot)
	add("install_project", s.InstallProject)
	add("pip_index", s.PipIndex != "")
	add("pip_extra_index_url", len(s.PipExtraIndexURLs) > 0)
	add("pip_extra_args", s.PipExtraArgs != "")
	add("cuda", s.CUDA != "")
	add("cudnn", s.CUDNN != "")

	return set
}
