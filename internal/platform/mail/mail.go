// Package mail delivers plain-text email.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	addr   string
	auth   smtp.Auth
	sender string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates an SMTPMailer. Authentication is skipped when username is empty.
func NewSMTPMailer(host string, port int, username, password, sender string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		auth:   auth,
		sender: sender,
		send:   smtp.SendMail,
	}
}

// Send delivers one message. The SMTP exchange itself cannot be cancelled,
// so ctx is only checked before and after it.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := compose(m.sender, to, subject, body, time.Now())
	done := make(chan error, 1)
	go func() { done <- m.send(m.addr, m.auth, m.sender, []string{to}, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// compose renders an RFC 5322 plain-text message.
func compose(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + at.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them.
// It is used when no SMTP relay is configured.
type LogMailer struct{}

// Send logs the message.
func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	slog.Info("mail not sent, no relay configured", "to", to, "subject", subject, "body", body)
	return nil
}
