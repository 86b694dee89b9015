package whitelist

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender is trusted and exempt from inspection.
// Entries are numeric user ids or usernames (with or without a leading "@").
type Checker struct {
	ids       map[int64]struct{}
	usernames map[string]struct{}
	logger    *zap.Logger
}

// NewChecker creates a new trusted sender checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	c := &Checker{
		ids:       make(map[int64]struct{}),
		usernames: make(map[string]struct{}),
		logger:    logger,
	}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if id, err := strconv.ParseInt(entry, 10, 64); err == nil {
			c.ids[id] = struct{}{}
			continue
		}
		c.usernames[normalize(entry)] = struct{}{}
	}

	if len(entries) > 0 && logger != nil {
		logger.Info("Initialized trusted senders",
			zap.Int("ids", len(c.ids)),
			zap.Int("usernames", len(c.usernames)))
	}

	return c
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// IsTrusted checks if the sender is on the trusted list
func (c *Checker) IsTrusted(userID int64, username string) bool {
	if c == nil {
		return false
	}

	if userID != 0 {
		if _, ok := c.ids[userID]; ok {
			c.debug(userID, username)
			return true
		}
	}

	if username != "" {
		if _, ok := c.usernames[normalize(username)]; ok {
			c.debug(userID, username)
			return true
		}
	}

	return false
}

func (c *Checker) debug(userID int64, username string) {
	if c.logger != nil {
		c.logger.Debug("Sender is trusted",
			zap.Int64("user_id", userID),
			zap.String("username", username))
	}
}
