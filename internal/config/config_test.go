package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Gemini.APIKey != "g-key" {
		t.Errorf("expected nested gemini key, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Groq.Model != "llama-3.1-8b-instant" {
		t.Errorf("expected groq model from env, got %q", cfg.Groq.Model)
	}
	if cfg.SessionLock != "none" {
		t.Errorf("expected last-write-wins default, got %q", cfg.SessionLock)
	}
	if cfg.WebhookEnforceSignature {
		t.Error("signature enforcement must default to off")
	}
	if cfg.NewConversationGap.Hours() != 6 {
		t.Errorf("expected 6h gap, got %s", cfg.NewConversationGap)
	}
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := &Config{Env: "production", SessionLock: "none", EmbeddingDimensions: 768, DatabaseURL: "postgres://x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing secrets in production")
	}

	cfg.WebhookSecret, cfg.DispatchSecret, cfg.JWTSecret = "a", "b", "c"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRedisLockNeedsURL(t *testing.T) {
	cfg := &Config{Env: "development", SessionLock: "redis", EmbeddingDimensions: 768}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when redis lock has no REDIS_URL")
	}
	cfg.SessionLock = "mutex"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown lock mode")
	}
}
