package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilnproject/kiln/pkg/command"
	"github.com/kilnproject/kiln/pkg/config"
	"github.com/kilnproject/kiln/pkg/doctor"
	"github.com/kilnproject/kiln/pkg/util/console"
)

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check for common issues with your project and build tools",
		Args:  cobra.NoArgs,
		RunE:  doctorCommand,
	}
}

func doctorCommand(cmd *cobra.Command, args []string) error {
	console.Info("🩺 Checking for issues with your project.\n")

	d := doctor.New(command.NewExec())
	for _, check := range d.CheckEnvironment(cmd.Context()) {
		color := "\033[31m"
		if check.OK {
			color = "\033[32m"
		}
		fmt.Printf("\t%s%-8s\033[0m %s\n", color, check.Name, check.Detail)
	}
	fmt.Println()

	_, projectDir, err := config.GetSpec()
	if err != nil {
		return err
	}
	report, err := doctor.CheckFiles(projectDir)
	if err != nil {
		return err
	}
	if report.Empty() {
		console.Info("No issues found with your project files.")
		return nil
	}

	if len(report.ProblemDirs) > 0 {
		fmt.Println("These directories can likely be excluded from your image:")
		for _, dir := range report.ProblemDirs {
			fmt.Printf("\t\033[31m%s\033[0m\n", dir)
		}
		fmt.Printf("\nYou can exclude them by adding them to your .dockerignore or .gitignore file.\n\n")
	}

	if len(report.LargeFiles) > 0 {
		fmt.Println("These files are large and better excluded from your image:")
		for _, file := range report.LargeFiles {
			fmt.Printf("\t\033[32m%s\033[0m\n", file)
		}
		fmt.Printf("\nYou can mount them into the container at runtime instead.\n\n")
	}

	for _, warning := range report.Warnings {
		console.Warnf("%s", warning)
	}
	return nil
}
