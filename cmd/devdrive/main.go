// Package main is the entry point for devdrive.
package main

import (
	"fmt"
	"os"

	"github.com/javanstorm/devdrive/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
