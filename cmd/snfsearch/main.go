// Package main provides the snfsearch command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/snfsearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
