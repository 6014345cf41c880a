// Package main is the entry point for the structcalc CLI.
package main

import (
	"os"

	"structcalc/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
