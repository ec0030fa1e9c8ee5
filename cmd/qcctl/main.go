// Command qcctl is the command-line client for the quality-control backend.
package main

import (
	"fmt"
	"os"

	"github.com/samvad-hq/inspectra/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
