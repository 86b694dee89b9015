package tesseract

import (
	"fmt"
	"os/exec"

	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"go.uber.org/zap"
)

// Factory creates new instances of Extractor
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Extractor instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateExtractor creates a new Extractor after checking the binary can be found
func (f *Factory) CreateExtractor() (core.TextExtractor, error) {
	tesseractCfg := f.cfg.GetTesseract()
	ocrCfg, err := f.cfg.GetOCR()
	if err != nil {
		return nil, err
	}

	if _, err := exec.LookPath(tesseractCfg.Binary); err != nil {
		return nil, fmt.Errorf("tesseract binary %q not found: %w", tesseractCfg.Binary, err)
	}

	return NewExtractor(
		tesseractCfg.Binary,
		tesseractCfg.Languages,
		tesseractCfg.TempDir,
		ocrCfg.Timeout,
		f.logger,
		f.textProcessor,
	), nil
}
