package core

import (
	"context"
)

// TextExtractor turns raw image bytes into lower-cased, normalized text
type TextExtractor interface {
	// Extract runs the recognizer over image and returns the recognized text
	Extract(ctx context.Context, image []byte) (string, error)
}

// ChatPlatform is the subset of the chat-management API the pipeline uses.
// Failures should be *PlatformError values so permission problems can be told apart.
type ChatPlatform interface {
	// FetchImage downloads the bytes of an attached image
	FetchImage(ctx context.Context, ref ImageRef) ([]byte, error)

	// DeleteMessage removes a message from a chat
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// SendText posts a plain text message to a chat
	SendText(ctx context.Context, chatID int64, text string) error

	// UnbanMember lifts a user's restriction, removing a current member from the chat
	UnbanMember(ctx context.Context, chatID, userID int64) error

	// BanMember removes a user from the chat permanently
	BanMember(ctx context.Context, chatID, userID int64) error
}

// RecognitionCache stores recognizer output by stable image id
type RecognitionCache interface {
	// Get retrieves a cached entry for an image
	Get(ctx context.Context, imageID string) (*RecognitionEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *RecognitionEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, imageID string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// RemovalEvent describes a scam message that was removed
type RemovalEvent struct {
	Chat      Chat
	MessageID int
	Sender    Sender
	Action    Action
	Group     int
}

// AuditNotifier receives a copy of every removal, in addition to the log chat
type AuditNotifier interface {
	NotifyRemoval(ctx context.Context, event RemovalEvent) error
}
