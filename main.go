package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sahilchouksey/gaokao-ingest/app"
)

func main() {
	// Interrupts stop the current stage; stored items are kept for the next run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.ExecuteContext(ctx)
}
