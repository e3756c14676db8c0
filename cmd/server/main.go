package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/config"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/logging"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Invalid environment, using defaults: %v", err)
		cfg = config.Default()
	}

	// Flags override environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	fixture := flag.String("fixture", cfg.Device.Fixture, "Device fixture file (.yaml, .yml or .toml)")
	sdk := flag.Int("sdk", cfg.Device.SDKLevel, "SDK level when the fixture does not set one")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Device.Fixture = *fixture
	cfg.Device.SDKLevel = *sdk
	cfg.Logging.Development = *dev

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Close(ctx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}
}
