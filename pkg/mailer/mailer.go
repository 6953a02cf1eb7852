package mailer

import (
	"errors"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/shopsphere/shopsphere-backend/pkg/config"
)

var (
	ErrDisabled      = errors.New("mailer is disabled")
	ErrNotConfigured = errors.New("mailer is not configured")
	ErrInvalidEmail  = errors.New("invalid recipient email")
)

// Sender delivers plain-text email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, body string) error
}

// Mailer sends plain-text mail over SMTP with optional PLAIN auth.
// Callers treat delivery as best-effort; errors are logged, never
// propagated into the triggering transaction.
type Mailer struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers a single text message to one recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}
	if m.cfg.Host == "" || m.cfg.Port == 0 || m.cfg.From == "" {
		return ErrNotConfigured
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return ErrInvalidEmail
	}

	msg := buildMessage(m.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" || m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
