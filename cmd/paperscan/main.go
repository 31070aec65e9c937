package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	switch {
	case err == nil:
		return
	case errors.Is(err, context.Canceled):
		// Interrupted by a signal; the daemon already logged the shutdown.
	default:
		fmt.Fprintf(os.Stderr, "paperscan: %v\n", err)
	}
	os.Exit(1)
}
