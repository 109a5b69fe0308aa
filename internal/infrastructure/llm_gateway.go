package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/ObisDevs/Salesboy-sub000/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrAllProvidersFailed is matched by every ProviderExhaustedError.
var ErrAllProvidersFailed = errors.New("all providers failed")

const reasonNotConfigured = "not configured"

type ProviderFailure struct {
	Provider string
	Reason   string
}

// ProviderExhaustedError lists why each provider in a chain failed.
type ProviderExhaustedError struct {
	Kind     string // "llm" or "embedding"
	Failures []ProviderFailure
}

func (e *ProviderExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: %s: no providers configured", ErrAllProvidersFailed, e.Kind)
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Provider + ": " + f.Reason
	}
	return fmt.Sprintf("%s: %s: %s", ErrAllProvidersFailed, e.Kind, strings.Join(parts, "; "))
}

func (e *ProviderExhaustedError) Unwrap() error { return ErrAllProvidersFailed }

// LLMGateway tries text providers in fixed priority order, one attempt each.
type LLMGateway struct {
	providers []interfaces.TextProvider
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewLLMGateway(providers []interfaces.TextProvider, timeout time.Duration, logger zerolog.Logger) *LLMGateway {
	return &LLMGateway{
		providers: providers,
		timeout:   timeout,
		logger:    logger.With().Str("component", "llm_gateway").Logger(),
	}
}

// Generate returns the first successful completion.
func (g *LLMGateway) Generate(ctx context.Context, req interfaces.GenerateRequest) (*entities.Generation, error) {
	if req.Temperature == nil {
		req.Temperature = interfaces.Temperature(entities.DefaultTemperature)
	}

	exhausted := &ProviderExhaustedError{Kind: "llm"}
	for _, p := range g.providers {
		if !p.Configured() {
			exhausted.Failures = append(exhausted.Failures, ProviderFailure{Provider: p.Name(), Reason: reasonNotConfigured})
			metrics.ProviderCalls.WithLabelValues("llm", p.Name(), "skipped").Inc()
			continue
		}

		content, err := g.attempt(ctx, p, req)
		if err == nil {
			metrics.ProviderCalls.WithLabelValues("llm", p.Name(), "ok").Inc()
			return &entities.Generation{Content: content, Provider: p.Name()}, nil
		}

		metrics.ProviderCalls.WithLabelValues("llm", p.Name(), "error").Inc()
		g.logger.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next")
		exhausted.Failures = append(exhausted.Failures, ProviderFailure{Provider: p.Name(), Reason: err.Error()})
	}

	g.logger.Error().Err(exhausted).Msg("no language model provider succeeded")
	return nil, exhausted
}

func (g *LLMGateway) attempt(ctx context.Context, p interfaces.TextProvider, req interfaces.GenerateRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	content, err := p.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("empty response")
	}
	return content, nil
}
