// File: internal/platform/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"

	"devops_platform_backend/internal/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when SMTP_HOST is unset.
var ErrNotConfigured = errors.New("smtp is not configured")

// Sender delivers notification emails.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
	SendHTML(ctx context.Context, to, subject, html string) error
	Enabled() bool
}

type smtpSender struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSender returns an SMTP backed Sender. Without SMTP_HOST every send
// returns ErrNotConfigured.
func NewSender(cfg *config.Config, logger *zap.Logger) Sender {
	s := &smtpSender{cfg: cfg, logger: logger.Named("Mailer")}
	if !s.Enabled() {
		s.logger.Warn("SMTP_HOST is not set, outgoing mail is disabled")
	}
	return s
}

func (s *smtpSender) Enabled() bool {
	return s.cfg.SMTPHost != ""
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, mail.TypeTextPlain, body)
}

func (s *smtpSender) SendHTML(ctx context.Context, to, subject, html string) error {
	return s.send(ctx, to, subject, mail.TypeTextHTML, html)
}

func (s *smtpSender) send(ctx context.Context, to, subject string, contentType mail.ContentType, body string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("invalid SMTP_FROM %q: %w", s.cfg.SMTPFrom, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(contentType, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.SMTPUser),
			mail.WithPassword(s.cfg.SMTPPass),
		)
	}

	client, err := mail.NewClient(s.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Warn("Failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
