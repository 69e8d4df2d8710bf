package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"iconforge/internal/scenegraph"
)

// stdinInteractive reports whether prompts can be answered. Tests replace it.
var stdinInteractive = func() bool { return isTerminal(os.Stdin) }

// terminalInteraction asks on stderr and reads answers line by line.
type terminalInteraction struct {
	in  *bufio.Reader
	out io.Writer
}

func newInteraction(cmd *cobra.Command) scenegraph.Interaction {
	if !stdinInteractive() {
		return nil
	}
	return &terminalInteraction{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

func (t *terminalInteraction) PromptLabel(ctx context.Context, message string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", message)
	return t.readLine(ctx)
}

func (t *terminalInteraction) Confirm(ctx context.Context, message string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N]: ", message)
	answer, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

type lineResult struct {
	line string
	err  error
}

func (t *terminalInteraction) readLine(ctx context.Context) (string, error) {
	done := make(chan lineResult, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		done <- lineResult{line: strings.TrimSpace(line), err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.line, res.err
	}
}
