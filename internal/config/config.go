package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ProviderConfig is one text/embedding provider's credentials.
type ProviderConfig struct {
	APIKey         string `env:"API_KEY"`
	BaseURL        string `env:"BASE_URL"`
	Model          string `env:"MODEL"`
	EmbeddingModel string `env:"EMBEDDING_MODEL"`
}

// Config holds all configuration for both the orchestrator and the gateway process.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET"`

	// Inbound webhook HMAC (gateway -> orchestrator)
	WebhookSecret           string `env:"WEBHOOK_SECRET"`
	WebhookEnforceSignature bool   `env:"WEBHOOK_ENFORCE_SIGNATURE" envDefault:"false"`

	// Outbound task dispatch HMAC, distinct from WebhookSecret
	DispatchSecret    string        `env:"DISPATCH_SECRET"`
	AutomationBaseURL string        `env:"AUTOMATION_BASE_URL"`
	DispatchTimeout   time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`

	// Transport gateway
	GatewayURL         string        `env:"GATEWAY_URL" envDefault:"http://localhost:3001"`
	GatewayAPIKey      string        `env:"GATEWAY_API_KEY"`
	GatewayPort        string        `env:"GATEWAY_PORT" envDefault:"3001"`
	DevicesDir         string        `env:"DEVICES_DIR" envDefault:"devices"`
	OrchestratorURL    string        `env:"ORCHESTRATOR_WEBHOOK_URL" envDefault:"http://localhost:8080/webhook/whatsapp"`
	SendTimeout        time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	StatusCheckTimeout time.Duration `env:"STATUS_CHECK_TIMEOUT" envDefault:"5s"`

	Groq      ProviderConfig `envPrefix:"GROQ_"`
	Gemini    ProviderConfig `envPrefix:"GEMINI_"`
	OpenAI    ProviderConfig `envPrefix:"OPENAI_"`
	Anthropic ProviderConfig `envPrefix:"ANTHROPIC_"`

	LLMTimeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	EmbeddingTimeout    time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"15s"`
	EmbeddingDimensions int           `env:"EMBEDDING_DIMENSIONS" envDefault:"768"`

	HistoryWindow      int           `env:"HISTORY_WINDOW" envDefault:"10"`
	HistoryMemory      int           `env:"HISTORY_MEMORY" envDefault:"40"`
	NewConversationGap time.Duration `env:"NEW_CONVERSATION_GAP" envDefault:"6h"`
	RetrievalTopK      int           `env:"RETRIEVAL_TOP_K" envDefault:"5"`
	ChunkTokens        int           `env:"CHUNK_TOKENS" envDefault:"500"`

	// none | local | redis
	SessionLock     string        `env:"INTENT_SESSION_LOCK" envDefault:"none"`
	SessionLockTTL  time.Duration `env:"INTENT_SESSION_LOCK_TTL" envDefault:"60s"`
	SessionLockWait time.Duration `env:"INTENT_SESSION_LOCK_WAIT" envDefault:"15s"`
}

// Load reads configuration from the environment.
// A .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the settings production cannot run without.
func (c *Config) Validate() error {
	switch c.SessionLock {
	case "none", "local", "redis":
	default:
		return fmt.Errorf("INTENT_SESSION_LOCK must be none, local or redis, got %q", c.SessionLock)
	}
	if c.SessionLock == "redis" && c.RedisURL == "" {
		return fmt.Errorf("INTENT_SESSION_LOCK=redis requires REDIS_URL")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be positive")
	}

	if !c.IsProduction() {
		return nil
	}
	required := []struct{ key, value string }{
		{"DATABASE_URL", c.DatabaseURL},
		{"WEBHOOK_SECRET", c.WebhookSecret},
		{"DISPATCH_SECRET", c.DispatchSecret},
		{"JWT_SECRET", c.JWTSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required in production", r.key)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
