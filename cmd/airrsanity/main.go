package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes.
const (
	exitFailure  = 1
	exitFindings = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	os.Stderr.WriteString("airrsanity: " + err.Error() + "\n")
	if errors.Is(err, errFindings) {
		os.Exit(exitFindings)
	}
	os.Exit(exitFailure)
}
