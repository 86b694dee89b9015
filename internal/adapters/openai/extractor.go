package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Extractor recognizes image text with an OpenAI vision model
type Extractor struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	timeout       time.Duration
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new OpenAI vision extractor
func NewExtractor(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	timeout time.Duration,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Extractor {
	return &Extractor{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		timeout:       timeout,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Extract sends image to the model and returns the normalized transcription
func (e *Extractor) Extract(ctx context.Context, image []byte) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.CreateChatCompletion(ctx, e.buildRequest(image))
	if err != nil {
		return "", core.NewEngineFailure(fmt.Errorf("failed to create chat completion with OpenAI: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", core.NewEngineFailure(errors.New("empty response from OpenAI"))
	}

	text := e.textProcessor.ProcessText(utils.CleanTranscript(resp.Choices[0].Message.Content))
	e.logger.Debug("Recognized image text",
		zap.String("model", e.modelName),
		zap.String("request_id", resp.ID),
		zap.Int("text_size", len(text)))

	return text, nil
}

func (e *Extractor) buildRequest(image []byte) openai.ChatCompletionRequest {
	dataURL := "data:" + mimetype.Detect(image).String() + ";base64," + base64.StdEncoding.EncodeToString(image)

	return openai.ChatCompletionRequest{
		Model: e.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: utils.RecognitionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	}
}
