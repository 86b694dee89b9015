package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Factory creates new instances of Extractor
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini extractors
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateExtractor creates a new Gemini extractor. The caller owns the
// returned extractor and must Close it.
func (f *Factory) CreateExtractor() (*Extractor, error) {
	geminiCfg := f.cfg.GetGemini()
	ocrCfg, err := f.cfg.GetOCR()
	if err != nil {
		return nil, err
	}

	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key is required for the gemini engine")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(geminiCfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(geminiCfg.ModelName)
	model.SetTemperature(geminiCfg.Temperature)
	model.SetMaxOutputTokens(int32(geminiCfg.MaxTokens))

	return NewExtractor(client, model, geminiCfg.ModelName, ocrCfg.Timeout, f.logger, f.textProcessor), nil
}
