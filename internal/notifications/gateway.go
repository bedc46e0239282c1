package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Delivery channels.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// Message is one outbound notification.
type Message struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// Sender delivers a single message on one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPGateway posts messages as JSON to a provider relay and retries transient failures.
type HTTPGateway struct {
	url        string
	httpClient *http.Client
	// MaxElapsed bounds in-process retries; River retries the job after that.
	MaxElapsed time.Duration
}

// NewHTTPGateway returns a gateway posting to url with the given per-request timeout.
func NewHTTPGateway(url string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		MaxElapsed: 30 * time.Second,
	}
}

func (g *HTTPGateway) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("network error calling %s gateway: %w", msg.Channel, err)
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%s gateway rate limited", msg.Channel)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("%s gateway status %d", msg.Channel, resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("%s gateway status %d", msg.Channel, resp.StatusCode)
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	expo.MaxElapsedTime = g.MaxElapsed
	return backoff.Retry(op, backoff.WithContext(expo, ctx))
}

// LogSender stands in for a channel with no gateway configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("notification gateway not configured, message logged only",
		"channel", msg.Channel, "to", msg.To, "subject", msg.Subject)
	return nil
}

// SenderFor returns an HTTP gateway for url, or a LogSender when url is empty.
func SenderFor(url string, timeout time.Duration) Sender {
	if url == "" {
		return LogSender{}
	}
	return NewHTTPGateway(url, timeout)
}
