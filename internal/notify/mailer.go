package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/bazuu/investorconnect/internal/config"
)

// Mailer delivers plain text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no
// SMTP host is configured.
func NewMailer(cfg config.SMTPConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &DiscardMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	cfg      config.SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("sending mail: header contains a line break")
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.sendMail(addr, auth, m.cfg.From, []string{to}, buildMessage(m.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// DiscardMailer logs messages instead of sending them.
type DiscardMailer struct {
	logger *slog.Logger
}

func (m *DiscardMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Debug("mail not sent, smtp disabled", "to", to, "subject", subject)
	return nil
}
