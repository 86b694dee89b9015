package di

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scam-image-filter/internal/adapters/telegram"
	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/factory"
	"github.com/mikey/scam-image-filter/internal/logging"
	"github.com/mikey/scam-image-filter/internal/metrics"
	"github.com/mikey/scam-image-filter/internal/ports"
	"github.com/mikey/scam-image-filter/internal/utils"
	"github.com/mikey/scam-image-filter/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container for
// the bot. An empty configPath searches the standard locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		if configPath != "" {
			return config.NewFromFile(configPath)
		}
		return config.New()
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(reg *prometheus.Registry) *metrics.Recorder {
		return metrics.NewRecorder(reg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, reg *prometheus.Registry, logger *zap.Logger) *metrics.Server {
		return metrics.NewServer(cfg.GetString("metrics.listen_address"), reg, logger)
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAuditFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(telegram.NewFactory); err != nil {
		return nil, err
	}

	// Register recognition cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.RecognitionCache, error) {
		return f.CreateRecognitionCache()
	}); err != nil {
		return nil, err
	}

	// Register trusted senders
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*whitelist.Checker, error) {
		moderation, err := cfg.GetModeration()
		if err != nil {
			return nil, err
		}
		return whitelist.NewChecker(moderation.TrustedUsers, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register Telegram bot and platform client
	if err := container.Provide(func(f *telegram.Factory) (*tgbotapi.BotAPI, error) {
		return f.CreateBot()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *telegram.Factory, bot *tgbotapi.BotAPI) core.ChatPlatform {
		return f.CreateClient(bot)
	}); err != nil {
		return nil, err
	}

	// Register moderation service
	if err := container.Provide(func(
		policy *core.PolicyStore,
		extractor core.TextExtractor,
		platform core.ChatPlatform,
		cache core.RecognitionCache,
		cacheFactory *factory.CacheFactory,
		auditFactory *factory.AuditFactory,
		trusted *whitelist.Checker,
		recorder *metrics.Recorder,
		logger *zap.Logger,
	) (*core.ModerationService, error) {
		cacheTTL, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}
		audit, err := auditFactory.CreateAuditNotifier()
		if err != nil {
			return nil, err
		}
		return core.NewModerationService(
			policy,
			extractor,
			platform,
			cache,
			logger,
			cacheFactory.IsCacheEnabled(),
			cacheTTL,
			trusted,
			audit,
			recorder,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register message source
	if err := container.Provide(func(f *telegram.Factory, bot *tgbotapi.BotAPI, service *core.ModerationService) ports.MessageSource {
		return f.CreateListener(bot, service)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideShared registers what the bot and the CLI have in common: text
// processing, the policy and the extractor
func provideShared(container *dig.Container) error {
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register moderation policy
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*core.PolicyStore, error) {
		moderation, err := cfg.GetModeration()
		if err != nil {
			return nil, err
		}
		store, err := core.NewPolicyStore(moderation.PolicyDefinition())
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded moderation policy",
			zap.Int("chats", store.ChatCount()),
			zap.Int("keyword_groups", len(store.KeywordGroups())))
		return store, nil
	}); err != nil {
		return err
	}

	if err := container.Provide(factory.NewExtractorFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ExtractorFactory) (core.TextExtractor, error) {
		return f.CreateExtractor()
	}); err != nil {
		return err
	}

	return nil
}
