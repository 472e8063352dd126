package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"anomalydash/internal/app"
	"anomalydash/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.NewApp(config.Load())
	if err := application.Run(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Println("Goodbye!")
}
