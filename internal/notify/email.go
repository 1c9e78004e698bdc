package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"rankscout/internal/config"
	"rankscout/internal/logging"
)

// EmailNotifier sends alerts over SMTP with plain auth.
type EmailNotifier struct {
	host     string
	port     int
	from     string
	password string
	to       []string
	logger   logging.Logger

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg *config.Config, logger logging.Logger) *EmailNotifier {
	return &EmailNotifier{
		host:     cfg.Notifications.SMTP.Host,
		port:     cfg.Notifications.SMTP.Port,
		from:     cfg.Notifications.SMTP.From,
		password: cfg.Notifications.SMTP.Password,
		to:       cfg.Notifications.SMTP.To,
		logger:   logger,
		send:     smtp.SendMail,
	}
}

func (e *EmailNotifier) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + e.from,
		"To: " + strings.Join(e.to, ", "),
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.from, e.password, e.host)
	if err := e.send(addr, auth, e.from, e.to, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	e.logger.Info("Alert email sent", map[string]interface{}{
		"subject":    subject,
		"recipients": len(e.to),
	})
	return nil
}
