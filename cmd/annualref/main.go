// Command annualref trains annual-reference consumption models for building
// delivery points, either against the silver database (run) or from CSV
// extracts (predict).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
