package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnproject/kiln/pkg/command"
	"github.com/kilnproject/kiln/pkg/config"
	"github.com/kilnproject/kiln/pkg/registry"
	"github.com/kilnproject/kiln/pkg/util/console"
)

func newExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists",
		Short: "Check whether the image for kiln.yaml is already in its registry",
		Args:  cobra.NoArgs,
		RunE:  existsCommand,
	}
}

func existsCommand(cmd *cobra.Command, args []string) error {
	spec, _, err := config.GetSpec()
	if err != nil {
		return err
	}
	if spec.Registry == "" {
		return fmt.Errorf("Set registry in kiln.yaml to check whether an image exists")
	}

	checker := registry.NewChecker(command.NewExec())
	imageName := spec.ImageName()
	exists, err := checker.Exists(cmd.Context(), imageName)
	if err != nil {
		return err
	}
	if !exists {
		console.Infof("Image %s does not exist", imageName)
		os.Exit(1)
	}
	console.Infof("Image %s exists", imageName)
	return nil
}
