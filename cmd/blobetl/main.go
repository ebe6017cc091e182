// Command blobetl validates, enriches and repartitions the daily CSV drops
// of a blob container.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
)

// exitError carries a process exit status other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
