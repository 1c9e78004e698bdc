package notify

import (
	"context"
	"fmt"

	"rankscout/internal/config"
	"rankscout/internal/logging"
)

// Notifier delivers operator alerts raised during a run, such as a captcha
// waiting for a human or the process crashing mid-batch.
type Notifier interface {
	// Send delivers one alert. Implementations must be safe to call from
	// the run loop; delivery failures are returned, never retried forever.
	Send(ctx context.Context, subject, body string) error
}

// Nop discards every alert. Used when notifications are disabled.
type Nop struct{}

func (Nop) Send(ctx context.Context, subject, body string) error { return nil }

// FromConfig builds the notifier selected by the configuration.
func FromConfig(cfg *config.Config, logger logging.Logger) (Notifier, error) {
	if !cfg.Notifications.Enabled {
		return Nop{}, nil
	}
	switch cfg.Notifications.Channel {
	case "smtp":
		return NewEmailNotifier(cfg, logger), nil
	case "webhook":
		return NewWebhookNotifier(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown notification channel: %s", cfg.Notifications.Channel)
	}
}
