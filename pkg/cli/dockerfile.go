package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilnproject/kiln/pkg/buildcontext"
	"github.com/kilnproject/kiln/pkg/config"
	"github.com/kilnproject/kiln/pkg/util/console"
	"github.com/kilnproject/kiln/pkg/util/files"
)

var dockerfileOutput string

func newDockerfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dockerfile",
		Short: "Generate the Dockerfile a build would use",
		Args:  cobra.NoArgs,
		RunE:  dockerfileCommand,
	}
	cmd.Flags().StringVarP(&dockerfileOutput, "output", "o", "", "Write the Dockerfile to this path instead of stdout")
	return cmd
}

// dockerfileCommand materializes a full build context rather than rendering
// in isolation, so the printed recipe reflects the staged lock artifacts a
// real build would reference.
func dockerfileCommand(cmd *cobra.Command, args []string) error {
	spec, projectDir, err := config.GetSpec()
	if err != nil {
		return err
	}

	buildContext, err := buildcontext.Materialize(spec, projectDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := buildContext.Cleanup(); err != nil {
			console.Warnf("%v", err)
		}
	}()

	content, err := os.ReadFile(buildContext.Dockerfile)
	if err != nil {
		return err
	}
	if dockerfileOutput != "" {
		p, err := files.WriteFile(content, dockerfileOutput)
		if err != nil {
			return fmt.Errorf("Failed to write output: %w", err)
		}
		console.Infof("Written Dockerfile to: %s", p)
		return nil
	}
	console.Output(strings.TrimSuffix(string(content), "\n"))
	return nil
}
