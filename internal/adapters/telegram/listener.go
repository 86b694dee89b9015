package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/scam-image-filter/internal/core"
	"go.uber.org/zap"
)

// MessageHandler processes one inbound message
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *core.InboundMessage) error
}

// updateSource is the part of *tgbotapi.BotAPI the listener uses
type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Listener long-polls for updates and handles each message in its own goroutine
type Listener struct {
	bot           updateSource
	handler       MessageHandler
	pollTimeout   int
	scanDocuments bool
	drainTimeout  time.Duration
	logger        *zap.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	stopping bool
	inflight sync.WaitGroup
	done     chan struct{}
}

// NewListener creates a new update listener
func NewListener(
	bot updateSource,
	handler MessageHandler,
	pollTimeout int,
	scanDocuments bool,
	logger *zap.Logger,
) *Listener {
	return &Listener{
		bot:           bot,
		handler:       handler,
		pollTimeout:   pollTimeout,
		scanDocuments: scanDocuments,
		drainTimeout:  30 * time.Second,
		logger:        logger,
	}
}

// Start begins receiving updates
func (l *Listener) Start() error {
	if l.done != nil {
		return fmt.Errorf("listener already started")
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.done = make(chan struct{})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = l.pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates := l.bot.GetUpdatesChan(u)
	l.logger.Info("Telegram listener starting", zap.Int("poll_timeout", l.pollTimeout))

	go l.loop(updates)
	return nil
}

func (l *Listener) loop(updates tgbotapi.UpdatesChannel) {
	defer close(l.done)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		msg := toInboundMessage(update.Message, l.scanDocuments)

		l.mu.Lock()
		if l.stopping {
			l.mu.Unlock()
			continue
		}
		l.inflight.Add(1)
		l.mu.Unlock()

		go l.handle(msg)
	}
}

func (l *Listener) handle(msg *core.InboundMessage) {
	defer l.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Panic while handling message",
				zap.Any("panic", r),
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Int("message_id", msg.ID))
		}
	}()

	if err := l.handler.HandleMessage(l.ctx, msg); err != nil {
		l.logger.Error("Failed to handle message",
			zap.Error(err),
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int("message_id", msg.ID))
	}
}

// Stop stops receiving updates, waits for the update loop to exit and then
// for in-flight messages, all within the drain timeout
func (l *Listener) Stop() error {
	if l.done == nil {
		return nil
	}

	l.mu.Lock()
	if l.stopping {
		l.mu.Unlock()
		return nil
	}
	l.stopping = true
	l.mu.Unlock()

	l.bot.StopReceivingUpdates()

	deadline := time.NewTimer(l.drainTimeout)
	defer deadline.Stop()

	// the update channel closes once the pending long poll returns
	select {
	case <-l.done:
	case <-deadline.C:
		l.logger.Warn("Timed out waiting for the update loop to exit")
		l.cancel()
		return nil
	}

	drained := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-deadline.C:
		l.logger.Warn("Timed out waiting for in-flight messages")
	}

	l.cancel()
	return nil
}
