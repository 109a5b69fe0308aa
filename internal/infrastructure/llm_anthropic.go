package infrastructure

import (
	"context"
	"strings"

	"github.com/ObisDevs/Salesboy-sub000/internal/config"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 1024

type AnthropicProvider struct {
	client     anthropic.Client
	model      string
	configured bool
}

func NewAnthropicProvider(pc config.ProviderConfig) *AnthropicProvider {
	model := pc.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &AnthropicProvider{
		client:     anthropic.NewClient(option.WithAPIKey(pc.APIKey), option.WithMaxRetries(0)),
		model:      model,
		configured: pc.APIKey != "",
	}
}

func (a *AnthropicProvider) Name() string     { return "anthropic" }
func (a *AnthropicProvider) Configured() bool { return a.configured }

func (a *AnthropicProvider) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.TemperatureOrDefault()),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
