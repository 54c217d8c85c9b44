// Package alerts delivers alert-worthy opportunities: a Discord webhook for
// humans and a Redis Pub/Sub broadcast for the API's websocket stream.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DiscordNotifier posts formatted alert messages to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string
	HTTP       *http.Client
	Log        *zap.Logger
}

func NewDiscordNotifier(webhookURL string, log *zap.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		Log:        log,
	}
}

// Enabled reports whether a webhook is configured.
func (n *DiscordNotifier) Enabled() bool {
	return n.WebhookURL != ""
}

// Send posts one message. Non-2xx responses surface as errors.
func (n *DiscordNotifier) Send(ctx context.Context, message string) error {
	if n.WebhookURL == "" {
		return fmt.Errorf("discord webhook url not configured")
	}

	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= 300 {
		return fmt.Errorf("discord webhook http %d", res.StatusCode)
	}

	n.Log.Debug("discord alert sent", zap.Int("status", res.StatusCode))
	return nil
}
