package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/scam-image-filter/internal/core"
)

// toInboundMessage maps a Bot API message onto the pipeline's message type.
// Photos use their largest size; image documents are included when scanDocuments is set.
func toInboundMessage(m *tgbotapi.Message, scanDocuments bool) *core.InboundMessage {
	msg := &core.InboundMessage{ID: m.MessageID}

	if m.Chat != nil {
		msg.Chat = core.Chat{
			ID:       m.Chat.ID,
			Type:     core.ChatType(m.Chat.Type),
			Username: m.Chat.UserName,
		}
	}

	// posts on behalf of a chat carry a placeholder user
	if m.From != nil && m.SenderChat == nil {
		msg.Sender = core.Sender{ID: m.From.ID, Username: m.From.UserName}
	}

	switch {
	case len(m.Photo) > 0:
		largest := m.Photo[len(m.Photo)-1]
		msg.Image = &core.ImageRef{FileID: largest.FileID, UniqueID: largest.FileUniqueID}
	case scanDocuments && m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/"):
		msg.Image = &core.ImageRef{FileID: m.Document.FileID, UniqueID: m.Document.FileUniqueID}
	}

	return msg
}
