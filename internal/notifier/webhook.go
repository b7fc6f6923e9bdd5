// Package notifier delivers alert events to an external webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/deepseaguard/insight-engine/internal/config"
	"github.com/deepseaguard/insight-engine/internal/types"
	"github.com/rs/zerolog"
)

// Webhook POSTs opened/closed events as JSON. The receiver is expected to
// be idempotent on (alert id, event type) since delivery is at-least-once.
type Webhook struct {
	logger zerolog.Logger
	client *http.Client
	url    string
	filter map[string]struct{}
}

// NewWebhook builds a webhook sink from config. The URL is resolved from
// the environment variable named in the config; if unset, the sink is
// disabled and Publish becomes a no-op.
func NewWebhook(logger zerolog.Logger, cfg config.WebhookConfig) *Webhook {
	w := &Webhook{
		logger: logger.With().Str("component", "webhook").Logger(),
		client: &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.URLEnv != "" {
		w.url = os.Getenv(cfg.URLEnv)
		if w.url == "" {
			w.logger.Warn().Str("url_env", cfg.URLEnv).Msg("Webhook URL env not set, sink disabled")
		}
	}
	if len(cfg.SeverityFilter) > 0 {
		w.filter = make(map[string]struct{}, len(cfg.SeverityFilter))
		for _, s := range cfg.SeverityFilter {
			w.filter[s] = struct{}{}
		}
	}
	return w
}

// Name implements pipeline.EventSink.
func (w *Webhook) Name() string { return "webhook" }

// Publish implements pipeline.EventSink.
func (w *Webhook) Publish(ctx context.Context, evt types.AlertEvent) error {
	if w.url == "" {
		return nil
	}
	if w.filter != nil {
		if _, ok := w.filter[evt.Alert.Severity]; !ok {
			return nil
		}
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(msg))
	}

	w.logger.Debug().
		Str("alert_id", evt.Alert.ID).
		Str("event", string(evt.Type)).
		Msg("Webhook delivered")
	return nil
}
