package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp()
	if err := app.Startup(); err != nil {
		app.log.WithError(err).Fatal("startup failed")
	}
	if err := app.Run(ctx); err != nil {
		app.log.WithError(err).Error("session ended with error")
		os.Exit(1)
	}
}
