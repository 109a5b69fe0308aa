package interfaces

import (
	"context"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
)

// GenerateRequest is one text-generation call. A nil Temperature means
// the default; an explicit 0 is passed through.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  *float64
	MaxTokens    int
}

// TemperatureOrDefault resolves an unset temperature.
func (r GenerateRequest) TemperatureOrDefault() float64 {
	if r.Temperature == nil {
		return entities.DefaultTemperature
	}
	return *r.Temperature
}

// Temperature returns a pointer for GenerateRequest.Temperature.
func Temperature(v float64) *float64 {
	return &v
}

// TextProvider is a single text-generation backend.
type TextProvider interface {
	Name() string
	Configured() bool
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// AIClient generates text through the ordered provider chain.
type AIClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*entities.Generation, error)
}

// EmbeddingProvider is a single embedding backend.
type EmbeddingProvider interface {
	Name() string
	Configured() bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Messenger sends a reply through the WhatsApp transport gateway.
type Messenger interface {
	SendMessage(ctx context.Context, tenantID, to, content string) error
}

type MessageStore interface {
	AppendMessage(ctx context.Context, msg *entities.Message) error
	ListRecent(ctx context.Context, tenantID, counterparty string, limit int) ([]entities.Message, error)
}

type SessionStore interface {
	GetActiveSession(ctx context.Context, tenantID, counterparty string) (*entities.IntentSession, error)
	UpsertSession(ctx context.Context, session *entities.IntentSession) error
	DeleteSession(ctx context.Context, tenantID, counterparty string) error
}

type ConfigStore interface {
	GetBotConfig(ctx context.Context, tenantID string) (*entities.BotConfig, error)
}

type IgnoreStore interface {
	IsIgnored(ctx context.Context, tenantID, counterparty string) (bool, error)
}

type ProductStore interface {
	ListProducts(ctx context.Context, tenantID string) ([]entities.Product, error)
}

type TenantStore interface {
	TenantExists(ctx context.Context, tenantID string) (bool, error)
}

// VectorIndex is the tenant-namespaced similarity index.
type VectorIndex interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]entities.VectorMatch, error)
	ReplaceDocument(ctx context.Context, namespace, documentID string, chunks []entities.KnowledgeChunk) error
	DeleteDocument(ctx context.Context, namespace, documentID string) error
	PurgeNamespace(ctx context.Context, namespace string) error
}

// PairLocker serializes work for one (tenant, counterparty) pair.
type PairLocker interface {
	Lock(ctx context.Context, tenantID, counterparty string) (unlock func(), err error)
}

type Retriever interface {
	Retrieve(ctx context.Context, tenantID, query string, topK int) (*entities.Retrieval, error)
}

type Classifier interface {
	Classify(ctx context.Context, in entities.ClassifyInput) *entities.IntentResult
}

type Composer interface {
	Compose(ctx context.Context, in entities.ComposeInput) (string, error)
}

type TaskDispatcher interface {
	Dispatch(ctx context.Context, task entities.Task) entities.DispatchOutcome
}

// MessageProcessor runs the full pipeline for one inbound message.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, in entities.InboundMessage) (*entities.ProcessResult, error)
}
