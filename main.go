package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spcdash/internal"
	"spcdash/internal/config"
	"spcdash/internal/container"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := internal.DefaultLogger.With("main")
	logger.Info("starting spcdash: api on :%s, ui on :%s, source %s",
		appConfig.Server.Port, appConfig.Server.UIPort, appContainer.Records.Name())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return appContainer.API.Run(gctx) })
	g.Go(func() error { return appContainer.UI.Start(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
