package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rankscout/internal/config"
	"rankscout/internal/logging"
)

// WebhookNotifier posts alerts as JSON to a configured endpoint, with a
// small bounded retry for transient failures.
type WebhookNotifier struct {
	url        string
	maxRetries int
	backoff    time.Duration
	client     *http.Client
	logger     logging.Logger
}

type webhookPayload struct {
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewWebhookNotifier(cfg *config.Config, logger logging.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:        cfg.Notifications.Webhook.URL,
		maxRetries: cfg.Notifications.Webhook.MaxRetries,
		backoff:    time.Second,
		client:     &http.Client{Timeout: cfg.Notifications.Webhook.Timeout.Std()},
		logger:     logger,
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(webhookPayload{
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode alert payload: %w", err)
	}

	var lastErr error
	attempts := w.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := w.post(ctx, payload); err != nil {
			lastErr = err
			w.logger.Warn("Webhook delivery attempt failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			if attempt == attempts {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * w.backoff):
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", attempts, lastErr)
}

func (w *WebhookNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
