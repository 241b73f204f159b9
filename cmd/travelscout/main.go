package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kailas-cloud/travelscout/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(version.Version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "travelscout:", err)
		stop()
		os.Exit(1)
	}
}
