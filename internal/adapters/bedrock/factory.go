package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Bedrock extractors
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateExtractor loads the AWS configuration and creates a Bedrock extractor
func (f *Factory) CreateExtractor() (core.TextExtractor, error) {
	bedrockCfg := f.cfg.GetBedrock()
	ocrCfg, err := f.cfg.GetOCR()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	extractor, err := NewExtractor(
		bedrockruntime.NewFromConfig(awsCfg),
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		ocrCfg.Timeout,
		f.logger,
		f.textProcessor,
	)
	if err != nil {
		return nil, err
	}
	return extractor, nil
}
