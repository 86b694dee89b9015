package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/scam-image-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// smallest valid PNG header, enough for content sniffing
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde,
}

type fakeBot struct {
	mu        sync.Mutex
	requests  []tgbotapi.Chattable
	sent      []tgbotapi.Chattable
	fileURL   string
	fileErr   error
	requestFn func(tgbotapi.Chattable) error
	sendErr   error
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	if b.requestFn != nil {
		if err := b.requestFn(c); err != nil {
			return nil, err
		}
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, b.sendErr
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	return b.fileURL, b.fileErr
}

func TestWrapErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		permission bool
	}{
		{"not enough rights", &tgbotapi.Error{Code: 400, Message: "Bad Request: not enough rights to restrict/unrestrict chat member"}, true},
		{"cannot delete", &tgbotapi.Error{Code: 400, Message: "Bad Request: message can't be deleted"}, true},
		{"admin required", &tgbotapi.Error{Code: 400, Message: "Bad Request: CHAT_ADMIN_REQUIRED"}, true},
		{"value error", tgbotapi.Error{Code: 400, Message: "Bad Request: have no rights to send a message"}, true},
		{"wrapped", fmt.Errorf("call: %w", &tgbotapi.Error{Message: "need administrator rights in the channel chat"}), true},
		{"not found", &tgbotapi.Error{Code: 400, Message: "Bad Request: message to delete not found"}, false},
		{"network", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapError("op", tt.err)
			require.Error(t, err)

			var platformErr *core.PlatformError
			require.True(t, errors.As(err, &platformErr))
			assert.Equal(t, tt.permission, errors.Is(err, core.ErrPermissionDenied))
			assert.Equal(t, tt.permission, core.ClassifyPlatformError(err) == core.PlatformPermissionDenied)
		})
	}

	assert.NoError(t, wrapError("op", nil))
}

func TestClientEnforcementCalls(t *testing.T) {
	bot := &fakeBot{}
	client := NewClient(bot, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, client.DeleteMessage(ctx, -100, 7))
	require.NoError(t, client.UnbanMember(ctx, -100, 42))
	require.NoError(t, client.BanMember(ctx, -100, 43))
	require.NoError(t, client.SendText(ctx, -200, "hello"))

	require.Len(t, bot.requests, 3)
	assert.Equal(t, tgbotapi.NewDeleteMessage(-100, 7), bot.requests[0])

	unban, ok := bot.requests[1].(tgbotapi.UnbanChatMemberConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), unban.UserID)
	assert.False(t, unban.OnlyIfBanned)

	ban, ok := bot.requests[2].(tgbotapi.BanChatMemberConfig)
	require.True(t, ok)
	assert.Equal(t, int64(43), ban.UserID)
	assert.Zero(t, ban.UntilDate)

	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-200), msg.ChatID)
	assert.Equal(t, "hello", msg.Text)
}

func TestClientPermissionDenied(t *testing.T) {
	bot := &fakeBot{
		requestFn: func(tgbotapi.Chattable) error {
			return &tgbotapi.Error{Code: 400, Message: "Bad Request: not enough rights"}
		},
	}
	client := NewClient(bot, nil, 0, zaptest.NewLogger(t))

	err := client.BanMember(context.Background(), -100, 1)
	assert.ErrorIs(t, err, core.ErrPermissionDenied)
}

func TestClientCancelledContext(t *testing.T) {
	bot := &fakeBot{}
	client := NewClient(bot, nil, 0, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, client.DeleteMessage(ctx, 1, 1), context.Canceled)
	assert.Empty(t, bot.requests)
}

func TestFetchImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			_, _ = w.Write(pngBytes)
		case "/text.txt":
			_, _ = w.Write([]byte("just some text"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	logger := zaptest.NewLogger(t)
	ctx := context.Background()
	ref := core.ImageRef{FileID: "file-1", UniqueID: "u-1"}

	t.Run("image", func(t *testing.T) {
		client := NewClient(&fakeBot{fileURL: server.URL + "/photo.png"}, server.Client(), 0, logger)
		data, err := client.FetchImage(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
	})

	t.Run("not an image", func(t *testing.T) {
		client := NewClient(&fakeBot{fileURL: server.URL + "/text.txt"}, server.Client(), 0, logger)
		_, err := client.FetchImage(ctx, ref)
		assert.ErrorContains(t, err, "not an image")
	})

	t.Run("too large", func(t *testing.T) {
		client := NewClient(&fakeBot{fileURL: server.URL + "/photo.png"}, server.Client(), 8, logger)
		_, err := client.FetchImage(ctx, ref)
		assert.ErrorContains(t, err, "exceeds")
	})

	t.Run("missing", func(t *testing.T) {
		client := NewClient(&fakeBot{fileURL: server.URL + "/gone"}, server.Client(), 0, logger)
		_, err := client.FetchImage(ctx, ref)
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("lookup failure", func(t *testing.T) {
		bot := &fakeBot{fileErr: &tgbotapi.Error{Code: 400, Message: "Bad Request: invalid file_id"}}
		client := NewClient(bot, server.Client(), 0, logger)
		_, err := client.FetchImage(ctx, ref)
		var platformErr *core.PlatformError
		assert.True(t, errors.As(err, &platformErr))
	})
}

func TestFetchImageDoesNotLeakURL(t *testing.T) {
	client := NewClient(&fakeBot{fileURL: "http://127.0.0.1:1/file/botSECRET-TOKEN/photo.png"}, nil, 0, zaptest.NewLogger(t))

	_, err := client.FetchImage(context.Background(), core.ImageRef{FileID: "f"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-TOKEN")
}

func TestToInboundMessage(t *testing.T) {
	base := func() *tgbotapi.Message {
		return &tgbotapi.Message{
			MessageID: 12,
			Chat:      &tgbotapi.Chat{ID: -1001, Type: "supergroup", UserName: "CryptoChat"},
			From:      &tgbotapi.User{ID: 77, UserName: "spammer"},
		}
	}

	t.Run("photo uses largest size", func(t *testing.T) {
		m := base()
		m.Photo = []tgbotapi.PhotoSize{
			{FileID: "small", FileUniqueID: "us"},
			{FileID: "large", FileUniqueID: "ul"},
		}
		msg := toInboundMessage(m, false)
		assert.Equal(t, 12, msg.ID)
		assert.Equal(t, core.Chat{ID: -1001, Type: core.ChatSupergroup, Username: "CryptoChat"}, msg.Chat)
		assert.Equal(t, core.Sender{ID: 77, Username: "spammer"}, msg.Sender)
		require.NotNil(t, msg.Image)
		assert.Equal(t, core.ImageRef{FileID: "large", UniqueID: "ul"}, *msg.Image)
	})

	t.Run("image document", func(t *testing.T) {
		m := base()
		m.Document = &tgbotapi.Document{FileID: "doc", FileUniqueID: "ud", MimeType: "image/jpeg"}
		assert.Nil(t, toInboundMessage(m, false).Image)
		require.NotNil(t, toInboundMessage(m, true).Image)
		assert.Equal(t, "doc", toInboundMessage(m, true).Image.FileID)
	})

	t.Run("other document", func(t *testing.T) {
		m := base()
		m.Document = &tgbotapi.Document{FileID: "doc", MimeType: "application/pdf"}
		assert.Nil(t, toInboundMessage(m, true).Image)
	})

	t.Run("sent on behalf of a chat", func(t *testing.T) {
		m := base()
		m.SenderChat = &tgbotapi.Chat{ID: -1002, Type: "channel"}
		assert.Equal(t, core.Sender{}, toInboundMessage(m, false).Sender)
	})
}

type fakeUpdates struct {
	ch      chan tgbotapi.Update
	stopped chan struct{}
	once    sync.Once
	config  tgbotapi.UpdateConfig
}

func newFakeUpdates() *fakeUpdates {
	return &fakeUpdates{ch: make(chan tgbotapi.Update, 10), stopped: make(chan struct{})}
}

func (f *fakeUpdates) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.config = config
	return f.ch
}

func (f *fakeUpdates) StopReceivingUpdates() {
	f.once.Do(func() {
		close(f.stopped)
		close(f.ch)
	})
}

type recordingHandler struct {
	mu       sync.Mutex
	handled  []*core.InboundMessage
	delay    time.Duration
	panicOn  int
	received chan struct{}
}

func (h *recordingHandler) HandleMessage(ctx context.Context, msg *core.InboundMessage) error {
	defer func() { h.received <- struct{}{} }()
	if msg.ID == h.panicOn {
		panic("boom")
	}
	time.Sleep(h.delay)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, msg)
	return nil
}

func TestListenerDispatchesMessages(t *testing.T) {
	updates := newFakeUpdates()
	handler := &recordingHandler{received: make(chan struct{}, 10), panicOn: -1}
	listener := NewListener(updates, handler, 30, false, zaptest.NewLogger(t))

	require.NoError(t, listener.Start())
	assert.Error(t, listener.Start())
	assert.Equal(t, 30, updates.config.Timeout)
	assert.Equal(t, []string{"message"}, updates.config.AllowedUpdates)

	chat := &tgbotapi.Chat{ID: -1, Type: "supergroup", UserName: "group"}
	updates.ch <- tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{MessageID: 1, Chat: chat}}
	updates.ch <- tgbotapi.Update{UpdateID: 2}
	updates.ch <- tgbotapi.Update{UpdateID: 3, Message: &tgbotapi.Message{MessageID: 3, Chat: chat}}

	for i := 0; i < 2; i++ {
		select {
		case <-handler.received:
		case <-time.After(5 * time.Second):
			t.Fatal("message was not handled")
		}
	}

	require.NoError(t, listener.Stop())
	require.NoError(t, listener.Stop())
	assert.Len(t, handler.handled, 2)
}

func TestListenerSurvivesPanics(t *testing.T) {
	updates := newFakeUpdates()
	handler := &recordingHandler{received: make(chan struct{}, 10), panicOn: 1}
	listener := NewListener(updates, handler, 0, false, zaptest.NewLogger(t))
	require.NoError(t, listener.Start())

	chat := &tgbotapi.Chat{ID: -1, Type: "supergroup"}
	updates.ch <- tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 1, Chat: chat}}
	updates.ch <- tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 2, Chat: chat}}

	for i := 0; i < 2; i++ {
		select {
		case <-handler.received:
		case <-time.After(5 * time.Second):
			t.Fatal("message was not handled")
		}
	}

	require.NoError(t, listener.Stop())
	require.Len(t, handler.handled, 1)
	assert.Equal(t, 2, handler.handled[0].ID)
}

func TestListenerStopWaitsForInflight(t *testing.T) {
	updates := newFakeUpdates()
	handler := &recordingHandler{received: make(chan struct{}, 10), panicOn: -1, delay: 200 * time.Millisecond}
	listener := NewListener(updates, handler, 0, false, zaptest.NewLogger(t))
	require.NoError(t, listener.Start())

	updates.ch <- tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: -1}}}
	// give the loop time to dispatch before stopping
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, listener.Stop())
	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Len(t, handler.handled, 1)
}

func TestListenerStopBeforeStart(t *testing.T) {
	listener := NewListener(newFakeUpdates(), &recordingHandler{}, 0, false, zaptest.NewLogger(t))
	assert.NoError(t, listener.Stop())
}

// slowUpdates closes its channel some time after being stopped, like a
// long poll that is still pending
type slowUpdates struct {
	*fakeUpdates
	closeAfter time.Duration
}

func (f *slowUpdates) StopReceivingUpdates() {
	if f.closeAfter < 0 {
		return
	}
	go func() {
		time.Sleep(f.closeAfter)
		f.fakeUpdates.StopReceivingUpdates()
	}()
}

func TestListenerStopWaitsForUpdateLoop(t *testing.T) {
	updates := &slowUpdates{fakeUpdates: newFakeUpdates(), closeAfter: 100 * time.Millisecond}
	listener := NewListener(updates, &recordingHandler{received: make(chan struct{}, 10), panicOn: -1}, 0, false, zaptest.NewLogger(t))
	require.NoError(t, listener.Start())

	require.NoError(t, listener.Stop())

	select {
	case <-listener.done:
	default:
		t.Fatal("update loop still running after Stop returned")
	}
}

func TestListenerStopGivesUpAfterDrainTimeout(t *testing.T) {
	updates := &slowUpdates{fakeUpdates: newFakeUpdates(), closeAfter: -1}
	listener := NewListener(updates, &recordingHandler{received: make(chan struct{}, 10), panicOn: -1}, 0, false, zaptest.NewLogger(t))
	listener.drainTimeout = 50 * time.Millisecond
	require.NoError(t, listener.Start())

	start := time.Now()
	require.NoError(t, listener.Stop())
	assert.Less(t, time.Since(start), time.Second)
	assert.Error(t, listener.ctx.Err())

	// let the loop goroutine exit
	updates.fakeUpdates.StopReceivingUpdates()
}
