package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/di"
	"github.com/mikey/scam-image-filter/internal/metrics"
	"github.com/mikey/scam-image-filter/internal/ports"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (searches the standard locations if empty)")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		var cfgErr *core.ConfigError
		if errors.As(dig.RootCause(err), &cfgErr) {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", cfgErr)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	source ports.MessageSource,
	metricsServer *metrics.Server,
	extractor core.TextExtractor,
	cache core.RecognitionCache,
) error {
	defer logger.Sync()

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	// Start receiving messages
	if err := source.Start(); err != nil {
		logger.Error("Failed to start message source", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := source.Stop(); err != nil {
		logger.Error("Failed to stop message source", zap.Error(err))
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error("Failed to stop metrics server", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := extractor.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close text extractor", zap.Error(err))
		}
	}

	// Stop the cache cleanup loop and close its database
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
