package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kilnproject/kiln/pkg/builder"
	"github.com/kilnproject/kiln/pkg/config"
	"github.com/kilnproject/kiln/pkg/telemetry"
	"github.com/kilnproject/kiln/pkg/util/console"
)

var buildForce bool

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an image from kiln.yaml",
		Args:  cobra.NoArgs,
		RunE:  buildCommand,
	}
	cmd.Flags().BoolVar(&buildForce, "force", false, "Build even when the image already exists in the registry")
	return cmd
}

func buildCommand(cmd *cobra.Command, args []string) error {
	spec, projectDir, err := config.GetSpec()
	if err != nil {
		return err
	}

	reg := newBuilderRegistry(projectDir, buildForce)

	start := time.Now()
	imageName, err := builder.Build(cmd.Context(), reg, spec)
	telemetry.Record(telemetry.Event{
		Action:          "build",
		ImageID:         spec.ID(),
		Builder:         spec.Builder,
		Success:         err == nil,
		DurationSeconds: time.Since(start).Seconds(),
	})
	if err != nil {
		return err
	}

	console.Infof("\nImage built as %s", imageName)
	return nil
}
