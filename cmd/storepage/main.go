// Package main is the entry point for the storepage CLI.
package main

import (
	"os"

	"github.com/jmylchreest/storepage/cmd/storepage/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
