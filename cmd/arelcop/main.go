// Package main is the entry point for the arelcop CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/imyousuf/arelcop/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrOffenses) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
