package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/gabriel-vasile/mimetype"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/mikey/scam-image-filter/internal/utils"
	"go.uber.org/zap"
)

// modelInvoker is the part of *bedrockruntime.Client the extractor calls
type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Extractor recognizes image text with a multimodal model hosted on Bedrock.
// Anthropic Claude and Amazon Nova request formats are supported.
type Extractor struct {
	client        modelInvoker
	modelID       string
	maxTokens     int
	temperature   float32
	timeout       time.Duration
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new Bedrock extractor
func NewExtractor(
	client modelInvoker,
	modelID string,
	maxTokens int,
	temperature float32,
	timeout time.Duration,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Extractor, error) {
	if !isAnthropicModel(modelID) && !isNovaModel(modelID) {
		return nil, fmt.Errorf("bedrock model %q does not accept images; use an anthropic.claude or amazon.nova model", modelID)
	}

	return &Extractor{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		timeout:       timeout,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Extract sends image to the model and returns the normalized transcription
func (e *Extractor) Extract(ctx context.Context, image []byte) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	payload, err := e.buildPayload(image)
	if err != nil {
		return "", core.NewEngineFailure(err)
	}

	resp, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", core.NewEngineFailure(fmt.Errorf("failed to invoke Bedrock model: %w", err))
	}

	raw, err := e.parseResponse(resp.Body)
	if err != nil {
		return "", core.NewEngineFailure(err)
	}

	text := e.textProcessor.ProcessText(utils.CleanTranscript(raw))
	e.logger.Debug("Recognized image text",
		zap.String("model", e.modelID),
		zap.Int("text_size", len(text)))

	return text, nil
}

func (e *Extractor) buildPayload(image []byte) ([]byte, error) {
	mime := mimetype.Detect(image).String()
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("unsupported image type %s", mime)
	}
	encoded := base64.StdEncoding.EncodeToString(image)

	if isAnthropicModel(e.modelID) {
		return json.Marshal(map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"max_tokens":        e.maxTokens,
			"temperature":       e.temperature,
			"messages": []interface{}{
				map[string]interface{}{
					"role": "user",
					"content": []interface{}{
						map[string]interface{}{
							"type": "image",
							"source": map[string]interface{}{
								"type":       "base64",
								"media_type": mime,
								"data":       encoded,
							},
						},
						map[string]interface{}{
							"type": "text",
							"text": utils.RecognitionPrompt,
						},
					},
				},
			},
		})
	}

	return json.Marshal(map[string]interface{}{
		"schemaVersion": "messages-v1",
		"messages": []interface{}{
			map[string]interface{}{
				"role": "user",
				"content": []interface{}{
					map[string]interface{}{
						"image": map[string]interface{}{
							"format": strings.TrimPrefix(mime, "image/"),
							"source": map[string]interface{}{"bytes": encoded},
						},
					},
					map[string]interface{}{"text": utils.RecognitionPrompt},
				},
			},
		},
		"inferenceConfig": map[string]interface{}{
			"maxTokens":   e.maxTokens,
			"temperature": e.temperature,
		},
	})
}

func (e *Extractor) parseResponse(body []byte) (string, error) {
	if isAnthropicModel(e.modelID) {
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		if len(claudeResp.Content) == 0 {
			return "", errors.New("empty response from Claude model")
		}
		var b strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		return b.String(), nil
	}

	var novaResp struct {
		Output struct {
			Message struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"message"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &novaResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal Nova response: %w", err)
	}
	if len(novaResp.Output.Message.Content) == 0 {
		return "", errors.New("empty response from Nova model")
	}
	var b strings.Builder
	for _, block := range novaResp.Output.Message.Content {
		b.WriteString(block.Text)
	}
	return b.String(), nil
}

// isAnthropicModel checks if the model is an Anthropic Claude model, possibly
// addressed through a cross-region inference profile
func isAnthropicModel(modelID string) bool {
	return strings.Contains(modelID, "anthropic.claude")
}

// isNovaModel checks if the model is an Amazon Nova model
func isNovaModel(modelID string) bool {
	return strings.Contains(modelID, "amazon.nova")
}
