package main

import (
	"context"
	"os/signal"
	"syscall"

	"passenger-rights-bot/internal/cli"
	"passenger-rights-bot/internal/config"
	"passenger-rights-bot/internal/logger"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cli.Serve(ctx, cfg); err != nil {
		logger.Fatal(logger.Fields{"error": err.Error()}, "server stopped")
	}
}
