package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts the alert as a JSON payload, compatible with Slack-style
// incoming webhooks.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

func (w *Webhook) Send(ctx context.Context, body string) error {
	if w == nil {
		return &NotifyError{Channel: "webhook", Err: errors.New("not configured")}
	}
	payload, _ := json.Marshal(webhookPayload{Text: body})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return &NotifyError{Channel: "webhook", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return &NotifyError{Channel: "webhook", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &NotifyError{Channel: "webhook", Err: fmt.Errorf("status %s", resp.Status)}
	}
	return nil
}
