package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/ObisDevs/Salesboy-sub000/internal/config"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiProvider serves both text generation and the primary embeddings.
type GeminiProvider struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

// NewGeminiProvider builds the client once. Without an API key the provider
// stays unconfigured and is skipped by the gateways.
func NewGeminiProvider(ctx context.Context, pc config.ProviderConfig) (*GeminiProvider, error) {
	g := &GeminiProvider{
		model:          pc.Model,
		embeddingModel: pc.EmbeddingModel,
	}
	if g.model == "" {
		g.model = "gemini-2.0-flash"
	}
	if g.embeddingModel == "" {
		g.embeddingModel = "text-embedding-004"
	}
	if pc.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  pc.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiProvider) Name() string     { return "gemini" }
func (g *GeminiProvider) Configured() bool { return g.client != nil }

func (g *GeminiProvider) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	temp := float32(req.TemperatureOrDefault())
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return res.Text(), nil
}

func (g *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, errors.New("gemini returned no embedding")
	}
	return res.Embeddings[0].Values, nil
}
