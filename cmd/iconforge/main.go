package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"iconforge/internal/services"
)

func main() {
	os.Exit(exitCode(newRootCommand().Execute(), os.Stderr))
}

// exitCode reports err on stderr and maps it to the process status. A run
// the user declined, or an interrupt, changed nothing the user did not ask
// for and exits 0 and 130 respectively without repeating the message.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case allMatch(err, services.ErrAborted):
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	}
	fmt.Fprintln(stderr, err)
	return 1
}

// allMatch reports whether every error joined into err matches target.
func allMatch(err, target error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !allMatch(e, target) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, target)
}
