package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"lrcsync/internal/lrcerrors"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(lrcerrors.ExitCode(err))
	}
}
