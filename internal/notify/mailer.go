// Package notify sends the service's transactional e-mails.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"dialaservice/internal/config"
)

var ErrMailDisabled = errors.New("mail is not configured")

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass),
		from:   cfg.EmailFrom,
		logger: logger,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", msg.Subject, msg.To, err)
	}
	m.logger.Info("Email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NopMailer stands in when SMTP is not configured. Every send fails with
// ErrMailDisabled so callers can report that nothing went out.
type NopMailer struct {
	Logger *slog.Logger
}

func (m NopMailer) Send(ctx context.Context, msg Message) error {
	m.Logger.Warn("Email not sent, SMTP is not configured", "to", msg.To, "subject", msg.Subject)
	return ErrMailDisabled
}

// New picks the SMTP mailer when the configuration allows it.
func New(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.MailEnabled() {
		return NewSMTPMailer(cfg, logger)
	}
	return NopMailer{Logger: logger}
}
