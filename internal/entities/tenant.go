package entities

import "time"

type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantMetadata holds the optional per-tenant integration settings.
type TenantMetadata struct {
	AutomationWebhookURL string `json:"automation_webhook_url,omitempty"` // overrides AUTOMATION_BASE_URL
	CallbackWebhookURL   string `json:"callback_webhook_url,omitempty"`   // tenant's own receiver for dispatched tasks
}

// BotConfig is the single active bot configuration row of a tenant.
type BotConfig struct {
	TenantID      string         `json:"tenant_id"`
	SystemPrompt  string         `json:"system_prompt"`
	Temperature   *float64       `json:"temperature"` // nil: use DefaultTemperature
	ModelName     string         `json:"model_name"`
	MaxTokens     int            `json:"max_tokens"`
	BusinessName  string         `json:"business_name"`
	BusinessEmail string         `json:"business_email"`
	Metadata      TenantMetadata `json:"metadata"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

const DefaultTemperature = 0.7

// EffectiveTemperature falls back to the default when the tenant never set
// one. An explicit 0 is honoured.
func (c *BotConfig) EffectiveTemperature() float64 {
	if c == nil || c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}
