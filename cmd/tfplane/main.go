// Package main provides the tfplane CLI.
//
// Usage:
//
//	tfplane [flags] <command> [args]
//
// Commands:
//
//	run          - project synthetic Gaussian noise onto a time-frequency plane
//	correlation  - print the two-point spectral correlation of the configured window
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-tfplane/cmd/tfplane/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
