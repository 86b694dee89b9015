package telegram

import (
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/scam-image-filter/internal/config"
	"go.uber.org/zap"
)

// Factory creates the Telegram bot and the components built on it
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Telegram components
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBot authenticates against the Bot API
func (f *Factory) CreateBot() (*tgbotapi.BotAPI, error) {
	telegramCfg := f.cfg.GetTelegram()
	if telegramCfg.Token == "" {
		return nil, fmt.Errorf("telegram token is not set (telegram.token or TELEGRAM_BOT_TOKEN)")
	}

	if err := tgbotapi.SetLogger(zap.NewStdLog(f.logger.Named("tgbotapi"))); err != nil {
		return nil, fmt.Errorf("failed to set bot logger: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(telegramCfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", redact(err))
	}
	bot.Debug = telegramCfg.Debug

	f.logger.Info("Authorized on Telegram", zap.String("bot", bot.Self.UserName))
	return bot, nil
}

// CreateClient creates the platform client used by the moderation service
func (f *Factory) CreateClient(bot *tgbotapi.BotAPI) *Client {
	telegramCfg := f.cfg.GetTelegram()
	httpClient := &http.Client{Timeout: 2 * time.Minute}
	return NewClient(bot, httpClient, telegramCfg.MaxImageBytes, f.logger)
}

// CreateListener creates the update listener feeding handler
func (f *Factory) CreateListener(bot *tgbotapi.BotAPI, handler MessageHandler) *Listener {
	telegramCfg := f.cfg.GetTelegram()
	return NewListener(bot, handler, telegramCfg.PollTimeout, telegramCfg.ScanImageDocuments, f.logger)
}
