package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/ObisDevs/Salesboy-sub000/internal/metrics"
	"github.com/rs/zerolog"
)

// EmbeddingGateway embeds with the primary provider and falls back once.
// Vectors from different providers live in different spaces; callers must
// keep one namespace on one provider.
type EmbeddingGateway struct {
	primary  interfaces.EmbeddingProvider
	fallback interfaces.EmbeddingProvider
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewEmbeddingGateway(primary, fallback interfaces.EmbeddingProvider, timeout time.Duration, logger zerolog.Logger) *EmbeddingGateway {
	return &EmbeddingGateway{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger.With().Str("component", "embedding_gateway").Logger(),
	}
}

func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	exhausted := &ProviderExhaustedError{Kind: "embedding"}

	for _, p := range []interfaces.EmbeddingProvider{g.primary, g.fallback} {
		if p == nil {
			continue
		}
		if !p.Configured() {
			exhausted.Failures = append(exhausted.Failures, ProviderFailure{Provider: p.Name(), Reason: reasonNotConfigured})
			continue
		}

		vec, err := g.attempt(ctx, p, text)
		if err == nil {
			metrics.ProviderCalls.WithLabelValues("embedding", p.Name(), "ok").Inc()
			return vec, nil
		}
		metrics.ProviderCalls.WithLabelValues("embedding", p.Name(), "error").Inc()
		g.logger.Warn().Err(err).Str("provider", p.Name()).Msg("embedding provider failed")
		exhausted.Failures = append(exhausted.Failures, ProviderFailure{Provider: p.Name(), Reason: err.Error()})
	}

	return nil, exhausted
}

func (g *EmbeddingGateway) attempt(ctx context.Context, p interfaces.EmbeddingProvider, text string) ([]float32, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	vec, err := p.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errors.New("empty embedding")
	}
	return vec, nil
}
