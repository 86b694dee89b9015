package ports

// MessageSource delivers inbound chat messages to the moderation service
type MessageSource interface {
	// Start begins receiving messages in the background
	Start() error

	// Stop stops receiving and waits for messages already being handled
	Stop() error
}
