package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand(os.Stdout, os.Stderr, os.Getenv).ExecuteContext(context.Background())
	if err != nil && !isReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process status. A failure already
// reported on stdout as an ERROR line ends the run normally; only usage
// errors exit non-zero.
func exitCode(err error) int {
	if err == nil || isReported(err) {
		return 0
	}
	return 1
}
