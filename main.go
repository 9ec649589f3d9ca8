// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lupen-dev/Mori/cmd"
	"github.com/Lupen-dev/Mori/internal/observability"
)

// main is the entry point for the Mori CLI application.
func main() {
	// Listen for interrupt signals so an in-flight login attempt tears the
	// browser down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
