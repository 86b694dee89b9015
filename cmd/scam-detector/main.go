package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/di"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitClean = 0
	exitError = 1
	exitScam  = 2
)

func main() {
	flags := di.ParseFlags()
	if flags.ImageFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: scam-detector -image <file> [-config <file>] [-chat <handle>] [-engine <name>]")
		os.Exit(exitError)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(exitError)
	}

	code := exitError
	if err := container.Invoke(func(
		logger *zap.Logger,
		service *core.ModerationService,
		extractor core.TextExtractor,
	) error {
		defer logger.Sync()

		var runErr error
		code, runErr = detect(logger, service, flags.ImageFile, flags.Chat)

		if closer, ok := extractor.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close text extractor", zap.Error(err))
			}
		}
		return runErr
	}); err != nil {
		var cfgErr *core.ConfigError
		if errors.As(dig.RootCause(err), &cfgErr) {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", cfgErr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitError)
	}

	os.Exit(code)
}

// detect runs detection over one image file and prints the verdict
func detect(logger *zap.Logger, service *core.ModerationService, path, chat string) (int, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return exitError, fmt.Errorf("failed to read image: %w", err)
	}
	logger.Info("Inspecting image", zap.String("file", path), zap.Int("size", len(image)))

	startTime := time.Now()
	detection, err := service.Detect(context.Background(), image)
	if err != nil {
		return exitError, err
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Recognized Text ===\n")
	fmt.Printf("%s\n", detection.Text)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Is scam: %t\n", detection.IsScam)
	if detection.IsScam {
		fmt.Printf("Keyword group: %d (%v)\n", detection.Group, service.Policy().KeywordGroups()[detection.Group].Keywords)
	}
	if chat != "" {
		fmt.Println(actionLine(service.Policy(), chat))
	}
	fmt.Printf("Processing time: %v\n", duration)

	if detection.IsScam {
		return exitScam, nil
	}
	return exitClean, nil
}

// actionLine describes what the bot would do to a scam sender in chat
func actionLine(policy *core.PolicyStore, chat string) string {
	target := core.Chat{Type: core.ChatSupergroup, Username: chat}
	if !policy.IsLegitimate(target) {
		return fmt.Sprintf("Action in @%s: not moderated", target.Handle())
	}
	return fmt.Sprintf("Action in @%s: %s", target.Handle(), core.Resolve(target, policy))
}
