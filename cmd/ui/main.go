package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spcdash/internal/config"
	"spcdash/internal/container"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	c, err := container.New(cfg)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}
	defer c.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting spcdash report UI on http://localhost:%s/report", cfg.Server.UIPort)
	if err := c.UI.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
