package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/scam-image-filter/internal/core"
	"go.uber.org/zap"
)

// botAPI is the part of *tgbotapi.BotAPI the client calls
type botAPI interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Client implements core.ChatPlatform on top of the Telegram Bot API
type Client struct {
	bot           botAPI
	httpClient    *http.Client
	maxImageBytes int64
	logger        *zap.Logger
}

// NewClient creates a new Telegram platform client
func NewClient(bot botAPI, httpClient *http.Client, maxImageBytes int64, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		bot:           bot,
		httpClient:    httpClient,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// FetchImage downloads an attached image
func (c *Client) FetchImage(ctx context.Context, ref core.ImageRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileURL, err := c.bot.GetFileDirectURL(ref.FileID)
	if err != nil {
		return nil, wrapError("get file", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", ref.FileID, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file %s: status %d", ref.FileID, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if c.maxImageBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxImageBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", ref.FileID, redact(err))
	}
	if c.maxImageBytes > 0 && int64(len(data)) > c.maxImageBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", ref.FileID, c.maxImageBytes)
	}

	if mime := mimetype.Detect(data); !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("file %s is not an image (%s)", ref.FileID, mime.String())
	}

	c.logger.Debug("Downloaded image",
		zap.String("file_id", ref.FileID),
		zap.Int("size", len(data)))

	return data, nil
}

// DeleteMessage removes a message from a chat
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return wrapError("delete message", err)
}

// SendText posts a plain text message to a chat
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return wrapError("send message", err)
}

// UnbanMember calls unbanChatMember without only_if_banned, which removes a
// current member while leaving them free to rejoin
func (c *Client) UnbanMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		OnlyIfBanned:     false,
	})
	return wrapError("unban chat member", err)
}

// BanMember bans a user from the chat for good
func (c *Client) BanMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	})
	return wrapError("ban chat member", err)
}

// redact drops the request URL, which embeds the bot token, from err
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
