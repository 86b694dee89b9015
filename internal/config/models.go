package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mikey/scam-image-filter/internal/core"
)

// TelegramConfig represents the configuration for the Telegram bot
type TelegramConfig struct {
	Token              string
	PollTimeout        int
	MaxImageBytes      int64
	ScanImageDocuments bool
	Debug              bool
}

// ChatConfig is one moderated chat
type ChatConfig struct {
	Username string  `mapstructure:"username"`
	LogID    *int64  `mapstructure:"log_id"`
	Action   *string `mapstructure:"action"`
}

// KeywordGroupConfig is one group of keywords that must all match
type KeywordGroupConfig struct {
	Keywords []string `mapstructure:"keywords"`
}

// ModerationConfig represents the moderation policy as written in the config file
type ModerationConfig struct {
	DefaultAction *string
	Chats         []ChatConfig
	KeywordGroups []KeywordGroupConfig
	TrustedUsers  []string
}

// OCRConfig selects the text recognizer
type OCRConfig struct {
	Engine  string
	Timeout time.Duration
}

// TesseractConfig represents the configuration for the tesseract command line
type TesseractConfig struct {
	Binary    string
	Languages string
	TempDir   string
}

// OpenAIConfig represents the configuration for OpenAI vision models
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
}

// CacheConfig represents the recognition cache configuration
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// SMTPConfig represents the audit mail configuration
type SMTPConfig struct {
	Enabled  bool
	Address  string
	From     string
	To       []string
	Username string
	Password string
}

// GetTelegram returns the Telegram configuration. The token falls back to
// the TELEGRAM_BOT_TOKEN environment variable.
func (c *Config) GetTelegram() TelegramConfig {
	token := c.GetString("telegram.token")
	if token == "" {
		token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	return TelegramConfig{
		Token:              token,
		PollTimeout:        c.GetInt("telegram.poll_timeout"),
		MaxImageBytes:      c.GetInt64("telegram.max_image_bytes"),
		ScanImageDocuments: c.GetBool("telegram.scan_image_documents"),
		Debug:              c.GetBool("telegram.debug"),
	}
}

// GetModeration returns the moderation policy section
func (c *Config) GetModeration() (ModerationConfig, error) {
	var m ModerationConfig

	if err := c.v.UnmarshalKey("moderation.chats", &m.Chats); err != nil {
		return m, fmt.Errorf("failed to parse moderation.chats: %w", err)
	}
	if err := c.v.UnmarshalKey("moderation.keyword_groups", &m.KeywordGroups); err != nil {
		return m, fmt.Errorf("failed to parse moderation.keyword_groups: %w", err)
	}
	if c.v.IsSet("moderation.default_action") {
		action := c.GetString("moderation.default_action")
		m.DefaultAction = &action
	}
	m.TrustedUsers = c.GetStringSlice("moderation.trusted_users")

	return m, nil
}

// PolicyDefinition converts the moderation section into the form the policy store validates
func (m ModerationConfig) PolicyDefinition() core.PolicyDefinition {
	def := core.PolicyDefinition{
		DefaultAction: m.DefaultAction,
		Chats:         make([]core.ChatDefinition, 0, len(m.Chats)),
		KeywordGroups: make([][]string, 0, len(m.KeywordGroups)),
	}
	for _, chat := range m.Chats {
		def.Chats = append(def.Chats, core.ChatDefinition{
			Username: chat.Username,
			LogID:    chat.LogID,
			Action:   chat.Action,
		})
	}
	for _, group := range m.KeywordGroups {
		def.KeywordGroups = append(def.KeywordGroups, group.Keywords)
	}
	return def
}

// GetOCR returns the recognizer selection
func (c *Config) GetOCR() (OCRConfig, error) {
	timeout, err := c.GetDuration("ocr.timeout")
	if err != nil {
		return OCRConfig{}, fmt.Errorf("invalid ocr timeout: %w", err)
	}
	return OCRConfig{
		Engine:  strings.ToLower(c.GetString("ocr.engine")),
		Timeout: timeout,
	}, nil
}

// GetTesseract returns the tesseract configuration
func (c *Config) GetTesseract() TesseractConfig {
	return TesseractConfig{
		Binary:    c.GetString("tesseract.binary"),
		Languages: c.GetString("tesseract.languages"),
		TempDir:   c.GetString("tesseract.temp_dir"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
	}
}

// GetCache returns the recognition cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetSMTP returns the audit mail configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:  c.GetBool("audit.smtp.enabled"),
		Address:  c.GetString("audit.smtp.address"),
		From:     c.GetString("audit.smtp.from"),
		To:       c.GetStringSlice("audit.smtp.to"),
		Username: c.GetString("audit.smtp.username"),
		Password: c.GetString("audit.smtp.password"),
	}
}
