package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"go.uber.org/zap"
)

// generator is the part of *genai.GenerativeModel the extractor calls
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Extractor recognizes image text with a Gemini model
type Extractor struct {
	client        *genai.Client
	model         generator
	modelName     string
	timeout       time.Duration
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new Gemini extractor. client may be nil when model
// does not need closing.
func NewExtractor(
	client *genai.Client,
	model generator,
	modelName string,
	timeout time.Duration,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Extractor {
	return &Extractor{
		client:        client,
		model:         model,
		modelName:     modelName,
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

	mime := mimetype.Detect(image).String()
	if !strings.HasPrefix(mime, "image/") {
		return "", core.NewEngineFailure(fmt.Errorf("unsupported image type %s", mime))
	}

	resp, err := e.model.GenerateContent(ctx,
		genai.ImageData(strings.TrimPrefix(mime, "image/"), image),
		genai.Text(utils.RecognitionPrompt),
	)
	if err != nil {
		return "", core.NewEngineFailure(fmt.Errorf("failed to generate content with Gemini: %w", err))
	}

	raw, err := responseText(resp)
	if err != nil {
		return "", core.NewEngineFailure(err)
	}

	text := e.textProcessor.ProcessText(utils.CleanTranscript(raw))
	e.logger.Debug("Recognized image text",
		zap.String("model", e.modelName),
		zap.Int("text_size", len(text)))

	return text, nil
}

// Close releases the underlying client
func (e *Extractor) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("gemini returned no content (finish reason %s)", candidate.FinishReason)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
