package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sea-cdm/OSEAN-KG/cmd"
	"github.com/sea-cdm/OSEAN-KG/internal/observability"
)

func main() {
	// A signal cancels the context, which aborts whatever pipeline phase is
	// running and lets the store close cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}
