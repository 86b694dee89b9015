package utils

import (
	"strings"
)

// NoTextMarker is what vision models are asked to answer for images without text
const NoTextMarker = "NO_TEXT"

// RecognitionPrompt asks a vision model for a plain transcription of an image
const RecognitionPrompt = `You are an OCR engine. Transcribe all text visible in the attached image exactly as written, keeping the original language and spelling.
Do not translate, summarize, describe or comment on the image.
Respond only with the transcribed text. If the image contains no text, respond with ` + NoTextMarker + ` and nothing else.`

// CleanTranscript strips the wrapping some models add around a transcription
// and maps the no-text marker to an empty string
func CleanTranscript(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], " \t") {
			// drop a language tag such as ```text
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if strings.EqualFold(text, NoTextMarker) {
		return ""
	}
	return text
}
