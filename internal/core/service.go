package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/scam-image-filter/internal/metrics"
	"github.com/mikey/scam-image-filter/internal/whitelist"
	"go.uber.org/zap"
)

// Texts posted in the chat when the bot lacks the rights for a moderation call
const (
	DeleteFallbackText = "I can't delete this photo\nI don't have enough rights."
	NotifyFallbackText = "I can't post to the log chat\nI don't have enough rights."
	KickFallbackText   = "I can't kick the user\nI don't have enough rights."
	BanFallbackText    = "I can't ban the user\nI don't have enough rights."
)

const (
	opDelete = "delete"
	opNotify = "notify"
	opKick   = "kick"
	opBan    = "ban"
)

// ModerationService runs the detection and enforcement pipeline for inbound messages
type ModerationService struct {
	policy       *PolicyStore
	extractor    TextExtractor
	platform     ChatPlatform
	cache        RecognitionCache
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	trusted      *whitelist.Checker
	audit        AuditNotifier
	metrics      *metrics.Recorder
}

// NewModerationService creates a new moderation service. cache, trusted,
// audit and recorder may be nil.
func NewModerationService(
	policy *PolicyStore,
	extractor TextExtractor,
	platform ChatPlatform,
	cache RecognitionCache,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	trusted *whitelist.Checker,
	audit AuditNotifier,
	recorder *metrics.Recorder,
) *ModerationService {
	return &ModerationService{
		policy:       policy,
		extractor:    extractor,
		platform:     platform,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
		trusted:      trusted,
		audit:        audit,
		metrics:      recorder,
	}
}

// Policy returns the policy store the service enforces
func (s *ModerationService) Policy() *PolicyStore {
	return s.policy
}

// HandleMessage runs the pipeline for one message. Returned errors concern
// this message only.
func (s *ModerationService) HandleMessage(ctx context.Context, msg *InboundMessage) error {
	if !s.policy.IsLegitimate(msg.Chat) {
		s.metrics.Message(metrics.OutcomeIneligible)
		return nil
	}

	if msg.Image == nil {
		s.metrics.Message(metrics.OutcomeNoImage)
		return nil
	}

	logger := s.logger.With(
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("chat", msg.Chat.Handle()),
		zap.Int("message_id", msg.ID),
		zap.Int64("sender_id", msg.Sender.ID))

	if s.trusted.IsTrusted(msg.Sender.ID, msg.Sender.Username) {
		logger.Debug("Skipping image from trusted sender")
		s.metrics.Message(metrics.OutcomeTrusted)
		return nil
	}

	text, err := s.recognize(ctx, *msg.Image)
	if err != nil {
		s.metrics.Message(metrics.OutcomeError)
		return err
	}

	group := MatchGroup(text, s.policy.KeywordGroups())
	if group < 0 {
		logger.Debug("Image is clean")
		s.metrics.Message(metrics.OutcomeClean)
		return nil
	}

	logger.Info("Scam image detected", zap.Int("keyword_group", group))

	if err := s.enforce(ctx, logger, msg, group); err != nil {
		s.metrics.Message(metrics.OutcomeError)
		return err
	}

	s.metrics.Message(metrics.OutcomeScam)
	return nil
}

// Detect runs extraction and matching over image without touching any chat
func (s *ModerationService) Detect(ctx context.Context, image []byte) (*Detection, error) {
	text, err := s.extract(ctx, image)
	if err != nil {
		return nil, err
	}
	group := MatchGroup(text, s.policy.KeywordGroups())
	return &Detection{
		IsScam: group >= 0,
		Group:  group,
		Text:   text,
	}, nil
}

// recognize returns the text of an attached image, consulting the cache first
func (s *ModerationService) recognize(ctx context.Context, ref ImageRef) (string, error) {
	useCache := s.cacheEnabled && ref.UniqueID != ""

	if useCache {
		entry, err := s.cache.Get(ctx, ref.UniqueID)
		s.metrics.CacheLookup(err == nil)
		if err == nil {
			s.logger.Debug("Recognition cache hit", zap.String("image_id", ref.UniqueID))
			return entry.Text, nil
		}
	}

	image, err := s.platform.FetchImage(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image %s: %w", ref.FileID, err)
	}

	text, err := s.extract(ctx, image)
	if err != nil {
		return "", err
	}

	if useCache {
		now := time.Now()
		entry := &RecognitionEntry{
			ImageID:      ref.UniqueID,
			Text:         text,
			RecognizedAt: now,
			ExpiresAt:    now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update recognition cache", zap.Error(err))
		}
	}

	return text, nil
}

func (s *ModerationService) extract(ctx context.Context, image []byte) (string, error) {
	start := time.Now()
	text, err := s.extractor.Extract(ctx, image)
	s.metrics.ObserveExtraction(time.Since(start))
	if err != nil {
		kind := ExtractionEngine
		var extractErr *ExtractionError
		if errors.As(err, &extractErr) {
			kind = extractErr.Kind
		}
		s.metrics.ExtractionFailed(kind.String())
		return "", err
	}
	return text, nil
}

func (s *ModerationService) enforce(ctx context.Context, logger *zap.Logger, msg *InboundMessage, group int) error {
	chat := msg.Chat

	err := s.attempt(ctx, logger, opDelete, chat.ID, DeleteFallbackText, func(ctx context.Context) error {
		return s.platform.DeleteMessage(ctx, chat.ID, msg.ID)
	})
	if err != nil {
		return err
	}

	if logID, ok := s.policy.LogDestination(chat); ok {
		err := s.attempt(ctx, logger, opNotify, chat.ID, NotifyFallbackText, func(ctx context.Context) error {
			return s.platform.SendText(ctx, logID, removalLogText(msg))
		})
		if err != nil {
			return err
		}
	}

	action := Resolve(chat, s.policy)
	s.metrics.Action(action.String())

	err = s.discipline(ctx, logger, msg, action)

	// audit mail only after the sender is dealt with
	if s.audit != nil {
		event := RemovalEvent{
			Chat:      chat,
			MessageID: msg.ID,
			Sender:    msg.Sender,
			Action:    action,
			Group:     group,
		}
		if auditErr := s.audit.NotifyRemoval(ctx, event); auditErr != nil {
			logger.Error("Failed to send removal audit", zap.Error(auditErr))
		}
	}

	return err
}

// discipline applies action to the sender of msg
func (s *ModerationService) discipline(ctx context.Context, logger *zap.Logger, msg *InboundMessage, action Action) error {
	if action == ActionIgnore {
		return nil
	}

	if msg.Sender.ID == 0 {
		logger.Warn("Scam sender has no user id, skipping enforcement", zap.Stringer("action", action))
		return nil
	}

	chatID := msg.Chat.ID
	switch action {
	case ActionKick:
		return s.attempt(ctx, logger, opKick, chatID, KickFallbackText, func(ctx context.Context) error {
			return s.platform.UnbanMember(ctx, chatID, msg.Sender.ID)
		})
	case ActionBan:
		return s.attempt(ctx, logger, opBan, chatID, BanFallbackText, func(ctx context.Context) error {
			return s.platform.BanMember(ctx, chatID, msg.Sender.ID)
		})
	}
	return nil
}

// attempt runs a moderation call. Missing rights are reported in the chat and
// swallowed; any other failure is returned.
func (s *ModerationService) attempt(
	ctx context.Context,
	logger *zap.Logger,
	op string,
	chatID int64,
	fallback string,
	call func(context.Context) error,
) error {
	err := call(ctx)
	if err == nil {
		s.metrics.Call(op, metrics.ResultOK)
		return nil
	}

	if ClassifyPlatformError(err) == PlatformPermissionDenied {
		s.metrics.Call(op, metrics.ResultPermissionDenied)
		logger.Warn("Not enough rights for moderation call", zap.String("op", op), zap.Error(err))
		if sendErr := s.platform.SendText(ctx, chatID, fallback); sendErr != nil {
			logger.Warn("Failed to send missing rights notice", zap.String("op", op), zap.Error(sendErr))
		}
		return nil
	}

	s.metrics.Call(op, metrics.ResultFailed)
	return &EnforcementError{Op: op, Err: err}
}

func removalLogText(msg *InboundMessage) string {
	text := fmt.Sprintf("Removed scam from group @%s", msg.Chat.Handle())
	switch {
	case msg.Sender.Username != "":
		text += fmt.Sprintf("\nSender: @%s (%d)", msg.Sender.Username, msg.Sender.ID)
	case msg.Sender.ID != 0:
		text += fmt.Sprintf("\nSender: %d", msg.Sender.ID)
	}
	return text
}
