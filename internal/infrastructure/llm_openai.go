package infrastructure

import (
	"context"
	"errors"

	"github.com/ObisDevs/Salesboy-sub000/internal/config"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIProvider speaks the OpenAI chat/embeddings API. Groq is served by the
// same adapter through its OpenAI-compatible endpoint.
type OpenAIProvider struct {
	name           string
	client         openai.Client
	model          string
	embeddingModel string
	dimensions     int
	configured     bool
}

func NewOpenAIProvider(pc config.ProviderConfig, dimensions int) *OpenAIProvider {
	model := pc.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	embeddingModel := pc.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}
	return newOpenAICompatible("openai", pc, model, embeddingModel, dimensions)
}

func NewGroqProvider(pc config.ProviderConfig) *OpenAIProvider {
	if pc.BaseURL == "" {
		pc.BaseURL = groqBaseURL
	}
	model := pc.Model
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	return newOpenAICompatible("groq", pc, model, "", 0)
}

func newOpenAICompatible(name string, pc config.ProviderConfig, model, embeddingModel string, dimensions int) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(pc.APIKey), option.WithMaxRetries(0)}
	if pc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(pc.BaseURL))
	}
	return &OpenAIProvider{
		name:           name,
		client:         openai.NewClient(opts...),
		model:          model,
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
		configured:     pc.APIKey != "",
	}
}

func (o *OpenAIProvider) Name() string     { return o.name }
func (o *OpenAIProvider) Configured() bool { return o.configured }

func (o *OpenAIProvider) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(req.TemperatureOrDefault()),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if o.embeddingModel == "" {
		return nil, errors.New("embeddings not supported")
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(o.embeddingModel),
	}
	if o.dimensions > 0 {
		params.Dimensions = openai.Int(int64(o.dimensions))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding returned")
	}
	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}
