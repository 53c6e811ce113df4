package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"imacwatch/config"
)

// ErrNotConfigured means no webhook URL was provided
var ErrNotConfigured = errors.New("webhook not configured")

const maxErrorBody = 512

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// DiscordNotifier posts messages to a Discord webhook
type DiscordNotifier struct {
	url      string
	username string
	client   *http.Client
}

// NewDiscordNotifier creates a notifier for the configured webhook
func NewDiscordNotifier(cfg config.WebhookConfig) *DiscordNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DiscordNotifier{
		url:      strings.TrimSpace(cfg.URL),
		username: cfg.Username,
		client:   &http.Client{Timeout: timeout},
	}
}

// Notify delivers content in a single POST. It makes no network call when
// the webhook is not configured.
func (n *DiscordNotifier) Notify(ctx context.Context, content string) error {
	if n.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(webhookPayload{Content: content, Username: n.username})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	return nil
}
