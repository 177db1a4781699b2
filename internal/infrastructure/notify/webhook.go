package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"coinsentry/internal/application/port"
)

// WebhookNotifier posts notifications as JSON to a configured endpoint.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	UserID   int64  `json:"user_id"`
	Text     string `json:"text"`
	Critical bool   `json:"critical"`
}

func (w *WebhookNotifier) Send(ctx context.Context, userID int64, text string, emphasis port.Emphasis) error {
	body, err := json.Marshal(webhookPayload{
		UserID:   userID,
		Text:     text,
		Critical: emphasis == port.EmphasisCritical,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook http %d", resp.StatusCode)
	}
	return nil
}

var _ port.Notifier = (*WebhookNotifier)(nil)
