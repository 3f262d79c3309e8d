package main

import (
	"os"

	"github.com/gobis-cli/gobis/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
