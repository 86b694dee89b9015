package mail

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/scam-image-filter/internal/core"
	"go.uber.org/zap"
)

// SMTPNotifier mails a short report for every removed scam
type SMTPNotifier struct {
	address  string
	from     string
	to       []string
	username string
	password string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSMTPNotifier creates a new SMTP audit notifier. Authentication is only
// attempted when username is set.
func NewSMTPNotifier(address, from string, to []string, username, password string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		address:  address,
		from:     from,
		to:       to,
		username: username,
		password: password,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// NotifyRemoval sends the report for event
func (n *SMTPNotifier) NotifyRemoval(ctx context.Context, event core.RemovalEvent) error {
	if len(n.to) == 0 {
		return nil
	}

	msg := buildMessage(n.from, n.to, event, time.Now())
	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send audit mail: %w", err)
	}

	n.logger.Debug("Audit mail sent",
		zap.Int64("chat_id", event.Chat.ID),
		zap.Int("message_id", event.MessageID),
		zap.Strings("to", n.to))
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, msg []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", n.address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", n.address, err)
	}

	deadline := time.Now().Add(n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range n.to {
		if err := c.Rcpt(recipient, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// buildMessage renders event as a plain text RFC 5322 message
func buildMessage(from string, to []string, event core.RemovalEvent, now time.Time) []byte {
	chat := event.Chat.Handle()
	if chat == "" {
		chat = fmt.Sprint(event.Chat.ID)
	} else {
		chat = "@" + chat
	}

	sender := "unknown"
	if event.Sender.ID != 0 {
		sender = fmt.Sprint(event.Sender.ID)
		if event.Sender.Username != "" {
			sender += " (@" + event.Sender.Username + ")"
		}
	}

	domain := "localhost"
	if at := strings.LastIndexByte(from, '@'); at >= 0 {
		domain = from[at+1:]
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: Removed scam from %s\r\n", chat)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Chat: %s (%d)\r\n", chat, event.Chat.ID)
	fmt.Fprintf(&b, "Message: %d\r\n", event.MessageID)
	fmt.Fprintf(&b, "Sender: %s\r\n", sender)
	fmt.Fprintf(&b, "Keyword group: %d\r\n", event.Group)
	fmt.Fprintf(&b, "Action: %s\r\n", event.Action)

	return b.Bytes()
}
