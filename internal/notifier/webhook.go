package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"identity-token-service/internal/model"
	"io"
	"net/http"
	"time"
)

// WebhookNotifier отправляет уведомление POST-запросом с JSON-телом.
// Любой ответ вне 2xx считается ошибкой доставки.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier : client == nil означает http.Client с заданным timeout
func NewWebhookNotifier(url string, timeout time.Duration, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &WebhookNotifier{url: url, client: client}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification *model.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("[Webhook] ошибка кодирования уведомления: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[Webhook] ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", notification.ID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("[Webhook] ошибка отправки: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("[Webhook] получатель ответил %d", resp.StatusCode)
	}

	return nil
}
