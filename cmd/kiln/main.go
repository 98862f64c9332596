package main

import (
	"github.com/kilnproject/kiln/pkg/cli"
	"github.com/kilnproject/kiln/pkg/util/console"
)

func main() {
	cmd, err := cli.NewRootCommand()
	if err != nil {
		console.Fatalf("%s", err)
	}

	if err = cmd.Execute(); err != nil {
		console.Fatalf("%s", err)
	}
}
