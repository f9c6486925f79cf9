package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/gnolang/astrule/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrMatchesFound) && !errors.Is(err, cmd.ErrInvalidSpec) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
