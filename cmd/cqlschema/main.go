package main

import (
	"os"

	"github.com/axonops/cqlschema/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
