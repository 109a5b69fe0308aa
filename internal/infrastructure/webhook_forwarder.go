package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/metrics"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types/events"
)

// WebhookForwarder posts inbound WhatsApp messages to the orchestrator.
type WebhookForwarder struct {
	url        string
	secret     string
	httpClient *http.Client
}

func NewWebhookForwarder(url, secret string, timeout time.Duration) *WebhookForwarder {
	return &WebhookForwarder{
		url:        url,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type inboundPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func (f *WebhookForwarder) Forward(ctx context.Context, tenantID, from, text string) error {
	body, err := json.Marshal(inboundPayload{From: from, Message: text, UserID: tenantID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.secret != "" {
		req.Header.Set("X-Signature", SignBody(f.secret, body))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.GatewayForwards.WithLabelValues("error").Inc()
		return fmt.Errorf("forward to orchestrator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.GatewayForwards.WithLabelValues("rejected").Inc()
		return fmt.Errorf("orchestrator returned %d", resp.StatusCode)
	}
	metrics.GatewayForwards.WithLabelValues("ok").Inc()
	return nil
}

// EventHandler forwards the text messages of one tenant's device.
func (f *WebhookForwarder) EventHandler(tenantID string, logger zerolog.Logger) func(interface{}) {
	logger = logger.With().Str("tenant_id", tenantID).Logger()
	return func(evt interface{}) {
		msg, ok := evt.(*events.Message)
		if !ok {
			return
		}
		from, text, ok := ParseMessage(msg)
		if !ok {
			return
		}
		// whatsmeow dispatches events serially; don't block it on the orchestrator
		go func() {
			if err := f.Forward(context.Background(), tenantID, from, text); err != nil {
				logger.Warn().Err(err).Str("from", from).Msg("forward to orchestrator failed")
			}
		}()
	}
}
