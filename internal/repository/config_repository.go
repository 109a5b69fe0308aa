package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigRepository stores the one active bot configuration per tenant.
type ConfigRepository struct {
	db *pgxpool.Pool
}

func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetBotConfig returns nil when the tenant has never saved a configuration.
func (r *ConfigRepository) GetBotConfig(ctx context.Context, tenantID string) (*entities.BotConfig, error) {
	var c entities.BotConfig
	err := r.db.QueryRow(ctx, `
		SELECT tenant_id, system_prompt, temperature, model_name, max_tokens,
		       business_name, business_email, metadata, updated_at
		FROM bot_configs WHERE tenant_id = $1
	`, tenantID).Scan(&c.TenantID, &c.SystemPrompt, &c.Temperature, &c.ModelName, &c.MaxTokens,
		&c.BusinessName, &c.BusinessEmail, &c.Metadata, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // Not found is not strictly an error
	}
	if err != nil {
		return nil, fmt.Errorf("get bot config: %w", err)
	}
	return &c, nil
}

// SaveBotConfig replaces the tenant's configuration.
func (r *ConfigRepository) SaveBotConfig(ctx context.Context, c *entities.BotConfig) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO bot_configs (tenant_id, system_prompt, temperature, model_name, max_tokens,
		                         business_name, business_email, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			system_prompt = EXCLUDED.system_prompt,
			temperature = EXCLUDED.temperature,
			model_name = EXCLUDED.model_name,
			max_tokens = EXCLUDED.max_tokens,
			business_name = EXCLUDED.business_name,
			business_email = EXCLUDED.business_email,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING updated_at
	`, c.TenantID, c.SystemPrompt, c.Temperature, c.ModelName, c.MaxTokens,
		c.BusinessName, c.BusinessEmail, c.Metadata).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save bot config: %w", err)
	}
	return nil
}
