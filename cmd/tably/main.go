// Package main is the entry point for the tably CLI.
package main

import (
	"os"

	"github.com/tably/tably/cmd/tably/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
