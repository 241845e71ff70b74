package main

import (
	"os"

	"stackcost/cmd/stackcost/cmd"
	"stackcost/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()

	if err != nil {
		os.Exit(1)
	}
	os.Exit(cmd.ExitCode())
}
