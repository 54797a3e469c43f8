package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sipforge/internal/services"
	"sipforge/internal/workspace"
)

// Exit codes. Validation failures get their own code so wrapper scripts can
// tell "fix the grid" apart from operational errors.
const (
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(exitFailure)
		}
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, workspace.ErrLocked) {
			fmt.Fprintln(os.Stderr, "another sipforge command is running; wait for it to finish")
		}
		if errors.Is(err, services.ErrValidation) {
			os.Exit(exitValidation)
		}
		os.Exit(exitFailure)
	}
}
