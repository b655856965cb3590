package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = 30 * time.Second

// SMTPSender delivers mail over implicit TLS with PLAIN auth.
type SMTPSender struct{}

func (s *SMTPSender) Send(ctx context.Context, cfg SMTPConfig, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(cfg.User); err != nil {
		return fmt.Errorf("set sender %q: %w", cfg.User, err)
	}
	if err := msg.To(cfg.To); err != nil {
		return fmt.Errorf("set recipient %q: %w", cfg.To, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
		mail.WithTimeout(smtpTimeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail via %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return nil
}
