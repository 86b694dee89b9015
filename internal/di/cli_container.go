package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	ImageFile  string
	ConfigFile string
	Chat       string
	Engine     string
	Verbose    bool
	JSONLog    bool
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.ImageFile, "image", "", "Image file to inspect (required)")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (searches the standard locations if empty)")
	flag.StringVar(&flags.Chat, "chat", "", "Chat handle used to resolve the action")
	flag.StringVar(&flags.Engine, "engine", "", "Override ocr.engine (tesseract, openai, gemini, bedrock)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		var (
			cfg *config.Config
			err error
		)
		if flags.ConfigFile != "" {
			cfg, err = config.NewFromFile(flags.ConfigFile)
		} else {
			cfg, err = config.New()
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded configuration", zap.String("file", cfg.GetViper().ConfigFileUsed()))

		if flags.Engine != "" {
			cfg.Set("ocr.engine", flags.Engine)
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register moderation service without a platform, cache or audit
	if err := container.Provide(func(
		policy *core.PolicyStore,
		extractor core.TextExtractor,
		logger *zap.Logger,
	) *core.ModerationService {
		return core.NewModerationService(
			policy,
			extractor,
			nil, // detection only
			nil, // No cache for CLI
			logger,
			false,
			0,
			nil,
			nil,
			nil,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
