package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	mail "github.com/go-mail/mail/v2"
)

// Email is a single outbound message with an HTML body and a plain-text
// fallback.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends mail over SMTP with mandatory STARTTLS
type SMTPMailer struct {
	dialer *mail.Dialer
	config SMTPConfig
	logger *slog.Logger
}

func NewSMTPMailer(config SMTPConfig, logger *slog.Logger) *SMTPMailer {
	d := mail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName: config.Host,
		MinVersion: tls.VersionTLS12,
	}

	return &SMTPMailer{
		dialer: d,
		config: config,
		logger: logger,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", s.config.From, s.config.FromName)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.TextBody)
	if email.HTMLBody != "" {
		m.AddAlternative("text/html", email.HTMLBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}

	s.logger.Info("Email sent", "to", email.To, "subject", email.Subject)
	return nil
}
