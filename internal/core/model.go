package core

import (
	"fmt"
	"strings"
	"time"
)

// Action is the disciplinary response applied to the sender of a scam
type Action int

const (
	// ActionIgnore deletes the message but leaves the sender alone
	ActionIgnore Action = iota
	// ActionKick removes the sender from the chat; they may rejoin
	ActionKick
	// ActionBan removes the sender permanently
	ActionBan
)

// ParseAction parses an action token (kick, ban or none), ignoring case
func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kick":
		return ActionKick, nil
	case "ban":
		return ActionBan, nil
	case "none":
		return ActionIgnore, nil
	default:
		return ActionIgnore, &ConfigError{Kind: ConfigInvalidAction, Raw: raw}
	}
}

func (a Action) String() string {
	switch a {
	case ActionKick:
		return "kick"
	case ActionBan:
		return "ban"
	case ActionIgnore:
		return "none"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ChatType distinguishes the kinds of chat a message can arrive from
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// Chat identifies the chat a message was posted in
type Chat struct {
	ID       int64
	Type     ChatType
	Username string
}

// Handle returns the chat's public handle in its canonical form
func (c Chat) Handle() string {
	return NormalizeHandle(c.Username)
}

// NormalizeHandle lower-cases a chat handle and strips a leading "@"
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// Sender is the user who posted a message. A zero ID means the message has
// no identifiable user (anonymous admins, posts on behalf of a channel).
type Sender struct {
	ID       int64
	Username string
}

// ImageRef points at an image attached to a message
type ImageRef struct {
	// FileID is the handle used to download the image
	FileID string
	// UniqueID stays the same when the same image is posted again
	UniqueID string
}

// InboundMessage is a chat message handed to the moderation pipeline
type InboundMessage struct {
	ID     int
	Chat   Chat
	Sender Sender
	Image  *ImageRef
}

// KeywordGroup is a set of keywords, folded with FoldText, that must all appear in the
// recognized text for the group to match
type KeywordGroup struct {
	Keywords []string
}

// Detection is the outcome of matching recognized text against keyword groups
type Detection struct {
	IsScam bool
	// Group is the index of the first satisfied keyword group, or -1
	Group int
	Text  string
}

// RecognitionEntry is a cached recognizer result for one image
type RecognitionEntry struct {
	ImageID      string
	Text         string
	RecognizedAt time.Time
	ExpiresAt    time.Time
}
