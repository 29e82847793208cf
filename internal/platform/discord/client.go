package discord

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"rachiohook/internal/pkg/errors"
	"rachiohook/internal/platform/config"
)

type Message struct {
	Content string `json:"content"`
}

// Client posts messages to a single Discord webhook.
type Client struct {
	http       *resty.Client
	webhookURL string
}

func New(cfg config.DiscordConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r := resty.New()
	r.SetTimeout(timeout)
	r.SetHeader("Content-Type", "application/json")

	return &Client{http: r, webhookURL: cfg.WebhookURL}
}

// SendMessage posts content as a chat message. Failures are returned as an
// UpstreamError and are not retried.
func (c *Client) SendMessage(ctx context.Context, content string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(Message{Content: content}).
		Post(c.webhookURL)

	if err != nil {
		return &errors.UpstreamError{Service: "discord", Op: "send message", Err: err}
	}
	if resp.IsError() {
		return &errors.UpstreamError{
			Service:    "discord",
			Op:         "send message",
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}
	return nil
}
