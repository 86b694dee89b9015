package factory

import (
	"fmt"

	"github.com/mikey/scam-image-filter/internal/adapters/bedrock"
	"github.com/mikey/scam-image-filter/internal/adapters/gemini"
	"github.com/mikey/scam-image-filter/internal/adapters/openai"
	"github.com/mikey/scam-image-filter/internal/adapters/tesseract"
	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"go.uber.org/zap"
)

// ExtractorFactory creates the text extractor selected by ocr.engine
type ExtractorFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractorFactory creates a new extractor factory
func NewExtractorFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ExtractorFactory {
	return &ExtractorFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateExtractor creates a new text extractor based on the configuration.
// Extractors holding connections also implement io.Closer.
func (f *ExtractorFactory) CreateExtractor() (core.TextExtractor, error) {
	ocrCfg, err := f.cfg.GetOCR()
	if err != nil {
		return nil, err
	}

	f.logger.Info("Creating text extractor", zap.String("engine", ocrCfg.Engine))

	switch ocrCfg.Engine {
	case "tesseract", "":
		return tesseract.NewFactory(f.cfg, f.logger, f.textProcessor).CreateExtractor()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateExtractor()
	case "gemini":
		extractor, err := gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateExtractor()
		if err != nil {
			return nil, err
		}
		return extractor, nil
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateExtractor()
	default:
		return nil, fmt.Errorf("unsupported ocr engine: %s", ocrCfg.Engine)
	}
}
