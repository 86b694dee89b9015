package telegram

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/scam-image-filter/internal/core"
)

// missingRightsMarkers are fragments of Bot API error descriptions that mean
// the bot is not allowed to perform the call
var missingRightsMarkers = []string{
	"not enough rights",
	"message can't be deleted",
	"have no rights",
	"chat_admin_required",
	"need administrator rights",
}

// apiError extracts the Bot API error from err, if there is one
func apiError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}

func isMissingRights(description string) bool {
	description = strings.ToLower(description)
	for _, marker := range missingRightsMarkers {
		if strings.Contains(description, marker) {
			return true
		}
	}
	return false
}

// wrapError turns a Bot API failure into a *core.PlatformError
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := core.PlatformOther
	if tgErr, ok := apiError(err); ok && isMissingRights(tgErr.Message) {
		kind = core.PlatformPermissionDenied
	}

	return &core.PlatformError{
		Kind:        kind,
		Description: op,
		Err:         redact(err),
	}
}
