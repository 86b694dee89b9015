package openai

import (
	"fmt"

	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new instances of Extractor
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAI extractors
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateExtractor creates a new OpenAI vision extractor
func (f *Factory) CreateExtractor() (core.TextExtractor, error) {
	openaiCfg := f.cfg.GetOpenAI()
	ocrCfg, err := f.cfg.GetOCR()
	if err != nil {
		return nil, err
	}

	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai.api_key is required for the openai engine")
	}

	clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
	if openaiCfg.BaseURL != "" {
		clientCfg.BaseURL = openaiCfg.BaseURL
	}

	return NewExtractor(
		openai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		ocrCfg.Timeout,
		f.logger,
		f.textProcessor,
	), nil
}
