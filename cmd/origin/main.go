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

	origin, err := app.NewOriginApp(config.Load())
	if err != nil {
		log.Fatalf("Failed to set up origin: %v", err)
	}
	if err := origin.Run(ctx); err != nil {
		log.Fatalf("Failed to start origin: %v", err)
	}
	log.Println("Goodbye!")
}
