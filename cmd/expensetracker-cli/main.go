package main

import (
	"os"

	"expensetracker/internal/cli"
	"expensetracker/internal/commands"
)

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
