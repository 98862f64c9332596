// Package cli wires the kiln commands together.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilnproject/kiln/pkg/builder"
	"github.com/kilnproject/kiln/pkg/command"
	"github.com/kilnproject/kiln/pkg/docker"
	"github.com/kilnproject/kiln/pkg/global"
	"github.com/kilnproject/kiln/pkg/registry"
	"github.com/kilnproject/kiln/pkg/util/console"
)

func NewRootCommand() (*cobra.Command, error) {
	rootCmd := cobra.Command{
		Use:     "kiln",
		Short:   "Build container images from declarative specs",
		Version: fmt.Sprintf("%s (built %s)", global.Version, global.BuildTime),
		// Errors are printed by cmd/kiln/main.go, not by cobra.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if global.Verbose {
				console.SetLevel(console.DebugLevel)
			}
			cmd.SilenceUsage = true
		},
		SilenceErrors: true,
	}
	setPersistentFlags(&rootCmd)

	rootCmd.AddCommand(
		newBuildCommand(),
		newDockerfileCommand(),
		newExistsCommand(),
		newDoctorCommand(),
	)

	return &rootCmd, nil
}

func setPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "Verbose output")
}

// newBuilderRegistry assembles the builders every build-flavored command
// selects from. The uv builder outranks the default one so lock-file specs
// get the stricter flow without asking.
func newBuilderRegistry(projectDir string, force bool) *builder.Registry {
	runner := command.NewExec()
	driver := docker.NewDriver(runner)
	checker := registry.NewChecker(runner)

	defaultBuilder := builder.NewDefaultBuilder(driver, checker, projectDir)
	defaultBuilder.Force = force

	reg := builder.NewRegistry()
	reg.Register("default", defaultBuilder, 0)
	reg.Register("uv", builder.NewUvBuilder(defaultBuilder), 10)
	return reg
}
