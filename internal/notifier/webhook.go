package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/model"
)

// WebhookForwarder posts report payloads to a workflow webhook.
type WebhookForwarder struct {
	URL        string
	Client     *http.Client
	MaxRetries int
	RetryDelay time.Duration

	log *logger.Logger
}

// NewWebhookForwarder creates a forwarder with optional proxy support.
func NewWebhookForwarder(webhookURL, proxyURL string, timeout time.Duration, maxRetries int, retryDelay time.Duration) *WebhookForwarder {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WebhookForwarder{
		URL: webhookURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		log:        logger.Get().With("component", "webhook"),
	}
}

func (w *WebhookForwarder) Name() string { return "webhook" }

// Send posts payload once. Any non-2xx answer is an error.
func (w *WebhookForwarder) Send(ctx context.Context, payload *model.ForwardPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends payload with exponential backoff retry.
func (w *WebhookForwarder) SendWithRetry(ctx context.Context, payload *model.ForwardPayload, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := w.Send(ctx, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := w.RetryDelay * time.Duration(1<<uint(i))
		w.log.Warnf("webhook send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}

// Forward implements Forwarder.
func (w *WebhookForwarder) Forward(ctx context.Context, payload *model.ForwardPayload) error {
	return w.SendWithRetry(ctx, payload, w.MaxRetries)
}

// Ping issues a GET against the webhook and returns the HTTP status code.
func (w *WebhookForwarder) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ping webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
