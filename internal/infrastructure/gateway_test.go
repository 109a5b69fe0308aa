package infrastructure

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/rs/zerolog"
)

type fakeProvider struct {
	name       string
	configured bool
	content    string
	vector     []float32
	err        error
	delay      time.Duration
	calls      int
	lastReq    interfaces.GenerateRequest
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.content, f.err
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func TestLLMGatewayFallsThroughInOrder(t *testing.T) {
	groq := &fakeProvider{name: "groq", configured: true, err: errors.New("rate limited")}
	gemini := &fakeProvider{name: "gemini", configured: true, content: "hello from gemini"}
	openai := &fakeProvider{name: "openai", configured: true, content: "never"}

	gw := NewLLMGateway([]interfaces.TextProvider{groq, gemini, openai}, time.Second, zerolog.Nop())
	gen, err := gw.Generate(context.Background(), interfaces.GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Provider != "gemini" || gen.Content != "hello from gemini" {
		t.Errorf("got %+v", gen)
	}
	if groq.calls != 1 || gemini.calls != 1 || openai.calls != 0 {
		t.Errorf("calls groq=%d gemini=%d openai=%d", groq.calls, gemini.calls, openai.calls)
	}
}

func TestLLMGatewayDefaultsTemperature(t *testing.T) {
	p := &fakeProvider{name: "groq", configured: true, content: "ok"}
	gw := NewLLMGateway([]interfaces.TextProvider{p}, time.Second, zerolog.Nop())
	if _, err := gw.Generate(context.Background(), interfaces.GenerateRequest{Prompt: "hi"}); err != nil {
		t.Fatal(err)
	}
	if p.lastReq.Temperature == nil || *p.lastReq.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", p.lastReq.Temperature)
	}
}

func TestLLMGatewayKeepsZeroTemperature(t *testing.T) {
	p := &fakeProvider{name: "groq", configured: true, content: "ok"}
	gw := NewLLMGateway([]interfaces.TextProvider{p}, time.Second, zerolog.Nop())
	req := interfaces.GenerateRequest{Prompt: "hi", Temperature: interfaces.Temperature(0)}
	if _, err := gw.Generate(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if got := p.lastReq.TemperatureOrDefault(); got != 0 {
		t.Errorf("temperature = %v, want 0", got)
	}
}

func TestLLMGatewaySkipsUnconfigured(t *testing.T) {
	groq := &fakeProvider{name: "groq"}
	anthropic := &fakeProvider{name: "anthropic", configured: true, content: "claude"}

	gw := NewLLMGateway([]interfaces.TextProvider{groq, anthropic}, time.Second, zerolog.Nop())
	gen, err := gw.Generate(context.Background(), interfaces.GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if groq.calls != 0 {
		t.Error("unconfigured provider must not be called")
	}
	if gen.Provider != "anthropic" {
		t.Errorf("provider = %s", gen.Provider)
	}
}

func TestLLMGatewayAggregateError(t *testing.T) {
	providers := []interfaces.TextProvider{
		&fakeProvider{name: "groq"},
		&fakeProvider{name: "gemini", configured: true, err: errors.New("quota exceeded")},
		&fakeProvider{name: "openai", configured: true, content: "   "},
		&fakeProvider{name: "anthropic", configured: true, err: errors.New("overloaded")},
	}
	gw := NewLLMGateway(providers, time.Second, zerolog.Nop())

	_, err := gw.Generate(context.Background(), interfaces.GenerateRequest{Prompt: "hi"})
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}

	var exhausted *ProviderExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ProviderExhaustedError, got %T", err)
	}
	if len(exhausted.Failures) != 4 {
		t.Fatalf("failures = %d, want 4", len(exhausted.Failures))
	}
	for _, want := range []string{"groq: not configured", "quota exceeded", "empty response", "overloaded"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestLLMGatewayPerAttemptTimeout(t *testing.T) {
	slow := &fakeProvider{name: "groq", configured: true, content: "late", delay: time.Second}
	fast := &fakeProvider{name: "gemini", configured: true, content: "fast"}

	gw := NewLLMGateway([]interfaces.TextProvider{slow, fast}, 20*time.Millisecond, zerolog.Nop())
	gen, err := gw.Generate(context.Background(), interfaces.GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if gen.Provider != "gemini" {
		t.Errorf("provider = %s, want gemini", gen.Provider)
	}
}

func TestEmbeddingGatewayFallback(t *testing.T) {
	primary := &fakeProvider{name: "gemini", configured: true, err: errors.New("unavailable")}
	fallback := &fakeProvider{name: "openai", configured: true, vector: []float32{0.1, 0.2}}

	gw := NewEmbeddingGateway(primary, fallback, time.Second, zerolog.Nop())
	vec, err := gw.Embed(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 {
		t.Errorf("vector = %v", vec)
	}
}

func TestEmbeddingGatewayBothFail(t *testing.T) {
	primary := &fakeProvider{name: "gemini"}
	fallback := &fakeProvider{name: "openai", configured: true}

	gw := NewEmbeddingGateway(primary, fallback, time.Second, zerolog.Nop())
	_, err := gw.Embed(context.Background(), "text")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty embedding") {
		t.Errorf("error %q should mention empty embedding", err)
	}
}
