package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/mikey/scam-image-filter/internal/core"
	"go.uber.org/zap"
)

// TextProcessor provides utilities for processing recognized text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// IsValid reports whether text is well-formed UTF-8
func (tp *TextProcessor) IsValid(text []byte) bool {
	return utf8.Valid(text)
}

// Normalize folds compatibility characters (NFKC), lower-cases the text and
// collapses every run of whitespace into a single space. Keywords go through
// the same fold when the policy is loaded.
func (tp *TextProcessor) Normalize(text string) string {
	normalized := core.FoldText(text)
	if tp.logger != nil && len(normalized) != len(text) {
		tp.logger.Debug("Text normalized",
			zap.Int("original_size", len(text)),
			zap.Int("normalized_size", len(normalized)))
	}
	return normalized
}

// SanitizeUTF8 drops invalid UTF-8 sequences from text
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := strings.ToValidUTF8(text, "")

	if tp.logger != nil {
		tp.logger.Debug("Text sanitized",
			zap.Int("original_size", len(text)),
			zap.Int("sanitized_size", len(result)))
	}

	return result
}

// ProcessText sanitizes and normalizes text in one operation
func (tp *TextProcessor) ProcessText(text string) string {
	return tp.Normalize(tp.SanitizeUTF8(text))
}
