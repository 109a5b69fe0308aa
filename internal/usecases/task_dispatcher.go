package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/ObisDevs/Salesboy-sub000/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DispatchPayload is the body posted to automation and callback endpoints.
type DispatchPayload struct {
	TaskType            entities.TaskType `json:"task_type"`
	Payload             map[string]any    `json:"payload"`
	UserID              string            `json:"user_id"`
	FromNumber          string            `json:"from_number"`
	OriginalMessage     string            `json:"original_message"`
	ConversationContext string            `json:"conversation_context"`
	Timestamp           string            `json:"timestamp"`
}

// TaskDispatcher hands completed tasks to external automation. Sends are
// best-effort and there is no deduplication: every call is a new delivery.
type TaskDispatcher struct {
	configs    interfaces.ConfigStore
	catalog    *TaskCatalog
	baseURL    string
	secret     string
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger
}

func NewTaskDispatcher(configs interfaces.ConfigStore, catalog *TaskCatalog, baseURL, secret string, timeout time.Duration, logger zerolog.Logger) *TaskDispatcher {
	return &TaskDispatcher{
		configs:    configs,
		catalog:    catalog,
		baseURL:    baseURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		logger:     logger.With().Str("component", "task_dispatcher").Logger(),
	}
}

func (d *TaskDispatcher) Dispatch(ctx context.Context, task entities.Task) entities.DispatchOutcome {
	outcome := entities.DispatchOutcome{
		DeliveryID: uuid.NewString(),
		TaskType:   task.TaskType,
	}
	log := d.logger.With().
		Str("tenant_id", task.UserID).
		Str("task_type", string(task.TaskType)).
		Str("delivery_id", outcome.DeliveryID).
		Logger()

	payload := task.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(DispatchPayload{
		TaskType:            task.TaskType,
		Payload:             payload,
		UserID:              task.UserID,
		FromNumber:          task.Counterparty,
		OriginalMessage:     task.OriginalMessage,
		ConversationContext: task.ConversationContext,
		Timestamp:           d.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error().Err(err).Msg("could not encode task")
		outcome.Attempts = append(outcome.Attempts, entities.DispatchAttempt{Target: entities.TargetAutomation, Error: err.Error()})
		return outcome
	}
	signature := infrastructure.SignBody(d.secret, body)

	var meta entities.TenantMetadata
	cfg, err := d.configs.GetBotConfig(ctx, task.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("tenant config unavailable, using default automation endpoint")
	} else if cfg != nil {
		meta = cfg.Metadata
	}

	base := d.baseURL
	if meta.AutomationWebhookURL != "" {
		base = meta.AutomationWebhookURL
	}

	targets := []entities.DispatchAttempt{{Target: entities.TargetAutomation}}
	if base != "" {
		targets[0].URL = strings.TrimRight(base, "/") + d.catalog.Endpoint(task.TaskType)
	}
	if meta.CallbackWebhookURL != "" {
		targets = append(targets, entities.DispatchAttempt{Target: entities.TargetCallback, URL: meta.CallbackWebhookURL})
	}

	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(a *entities.DispatchAttempt) {
			defer wg.Done()
			d.send(ctx, a, body, signature, outcome.DeliveryID)

			result := "ok"
			if a.Error != "" {
				result = "error"
				log.Warn().Str("target", string(a.Target)).Str("url", a.URL).Int("status", a.StatusCode).Str("error", a.Error).Msg("task dispatch failed")
			}
			metrics.TaskDispatches.WithLabelValues(string(a.Target), result).Inc()
		}(&targets[i])
	}
	wg.Wait()

	outcome.Attempts = targets
	log.Info().Int("attempts", len(targets)).Msg("task dispatched")
	return outcome
}

func (d *TaskDispatcher) send(ctx context.Context, a *entities.DispatchAttempt, body []byte, signature, deliveryID string) {
	if a.URL == "" {
		a.Error = "no endpoint configured"
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(body))
	if err != nil {
		a.Error = err.Error()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signature)
	req.Header.Set("X-Delivery-ID", deliveryID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		a.Error = err.Error()
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	a.StatusCode = resp.StatusCode
	if resp.StatusCode >= 300 {
		a.Error = fmt.Sprintf("endpoint returned %d", resp.StatusCode)
	}
}
