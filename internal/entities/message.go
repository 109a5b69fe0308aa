package entities

import "time"

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Message is one logged WhatsApp message. Immutable once written.
type Message struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Counterparty string         `json:"counterparty"` // customer's WhatsApp address
	Body         string         `json:"body"`
	Direction    Direction      `json:"direction"`
	CreatedAt    time.Time      `json:"created_at"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// InboundMessage is what the transport gateway posts to the webhook
type InboundMessage struct {
	TenantID string
	From     string
	Body     string
}

// ProcessResult is the structured summary returned for every processed webhook call.
type ProcessResult struct {
	Message  string     `json:"message"`
	Intent   IntentKind `json:"intent,omitempty"`
	TaskType *TaskType  `json:"task_type"`
	Response string     `json:"response"`
	Filtered string     `json:"filtered,omitempty"` // reason when the message was dropped
}

// Product is a tenant catalog entry folded into the system prompt.
type Product struct {
	ID          int     `json:"id"`
	TenantID    string  `json:"tenant_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	InStock     bool    `json:"in_stock"`
}

// IgnoreEntry silences all processing for one sender of a tenant.
type IgnoreEntry struct {
	TenantID     string    `json:"tenant_id"`
	Counterparty string    `json:"counterparty"`
	Label        string    `json:"label,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
