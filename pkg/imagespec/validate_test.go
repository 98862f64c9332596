package imagespec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFillsDefaults(t *testing.T) {
	spec := &Spec{}
	require.NoError(t, spec.ValidateAndComplete())
	require.Equal(t, "kiln", spec.Name)
	require.Equal(t, "linux/amd64", spec.Platform)
	require.Equal(t, DefaultPythonVersion, spec.PythonVersion)
}

func TestPackagesAndLockFileCantBeUsedTogether(t *testing.T) {
	spec := &Spec{
		Packages:     []string{"numpy"},
		Requirements: "uv.lock",
	}
	err := spec.ValidateAndComplete()
	require.ErrorContains(t, err, "Support for uv.lock files and packages is mutually exclusive")
}

func TestPackagesAndRequirementsFileCantBeUsedTogether(t *testing.T) {
	spec := &Spec{
		Packages:     []string{"numpy"},
		Requirements: "requirements.txt",
	}
	err := spec.ValidateAndComplete()
	require.ErrorContains(t, err, "Only one of packages or requirements can be set")
}

func TestCUDAFieldsAreRejected(t *testing.T) {
	spec := &Spec{CUDA: "12.1"}
	err := spec.ValidateAndComplete()
	require.ErrorContains(t, err, "cuda and cudnn do not need to be specified")

	spec = &Spec{CUDNN: "8"}
	err = spec.ValidateAndComplete()
	require.ErrorContains(t, err, "cuda and cudnn do not need to be specified")
}

func TestPythonExecWithCondaIsRejected(t *testing.T) {
	spec := &Spec{
		PythonExec:    "/usr/bin/python3",
		CondaPackages: []string{"numpy"},
	}
	err := spec.ValidateAndComplete()
	require.ErrorContains(t, err, "conda_packages is not supported with python_exec")

	spec = &Spec{
		PythonExec:    "/usr/bin/python3",
		CondaChannels: []string{"conda-forge"},
	}
	err = spec.ValidateAndComplete()
	require.ErrorContains(t, err, "conda_channels is not supported with python_exec")
}

func TestValidatePythonVersion(t *testing.T) {
	for _, version := range []string{"3.9", "3.12", "3.13.1"} {
		spec := &Spec{PythonVersion: version}
		require.NoError(t, spec.ValidateAndComplete(), "%s should be a valid version", version)
	}

	spec := &Spec{PythonVersion: "2.7"}
	require.ErrorContains(t, spec.ValidateAndComplete(), "must be a 3.x release")

	spec = &Spec{PythonVersion: "not-a-version"}
	require.ErrorContains(t, spec.ValidateAndComplete(), "invalid python_version")
}

func TestBaseImageAndBaseSpecCantBeUsedTogether(t *testing.T) {
	spec := &Spec{
		BaseImage: "ubuntu:24.04",
		Base:      &Spec{Name: "base"},
	}
	err := spec.ValidateAndComplete()
	require.ErrorContains(t, err, "Only one of base_image or base can be set")
}

func TestBaseSpecIsValidatedRecursively(t *testing.T) {
	spec := &Spec{
		Base: &Spec{CUDA: "12.1"},
	}
	err := spec.ValidateAndComplete()
	require.ErrorContains(t, err, "in base spec")
}

func TestCopySourceTreeRequiresSourceRoot(t *testing.T) {
	spec := &Spec{CopySourceTree: true}
	err := spec.ValidateAndComplete()
	require.ErrorContains(t, err, "source_root must be set")
}

func TestSetFields(t *testing.T) {
	spec := &Spec{
		Name:         "app",
		Requirements: "uv.lock",
		UseDepot:     true,
	}
	require.Equal(t, []string{"name", "requirements", "use_depot"}, spec.SetFields())
}
