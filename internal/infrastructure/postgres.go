package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string, dimensions int, logger zerolog.Logger) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	if err := client.Migrate(ctx, dimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Int("embedding_dimensions", dimensions).Msg("database ready")

	return client, nil
}

type migration struct {
	name string
	sql  string
}

// Migrate creates the schema. Every statement is idempotent.
func (p *PostgresClient) Migrate(ctx context.Context, dimensions int) error {
	steps := []migration{
		{"vector extension", `CREATE EXTENSION IF NOT EXISTS vector`},
		{"tenants table", `
			CREATE TABLE IF NOT EXISTS tenants (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`},
		{"bot_configs table", `
			CREATE TABLE IF NOT EXISTS bot_configs (
				tenant_id TEXT PRIMARY KEY REFERENCES tenants(id) ON DELETE CASCADE,
				system_prompt TEXT NOT NULL DEFAULT '',
				temperature DOUBLE PRECISION,
				model_name TEXT NOT NULL DEFAULT '',
				max_tokens INT NOT NULL DEFAULT 0,
				business_name TEXT NOT NULL DEFAULT '',
				business_email TEXT NOT NULL DEFAULT '',
				metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`},
		// NULL temperature means "use the default"; 0 is a valid setting.
		{"bot_configs nullable temperature", `
			ALTER TABLE bot_configs
				ALTER COLUMN temperature DROP NOT NULL,
				ALTER COLUMN temperature DROP DEFAULT`},
		{"messages table", `
			CREATE TABLE IF NOT EXISTS messages (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				counterparty TEXT NOT NULL,
				body TEXT NOT NULL,
				direction VARCHAR(10) NOT NULL,
				metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`},
		{"messages index", `CREATE INDEX IF NOT EXISTS messages_pair_created_idx ON messages (tenant_id, counterparty, created_at DESC)`},
		{"intent_sessions table", `
			CREATE TABLE IF NOT EXISTS intent_sessions (
				tenant_id TEXT NOT NULL,
				counterparty TEXT NOT NULL,
				task_type VARCHAR(32),
				status VARCHAR(16) NOT NULL,
				payload JSONB NOT NULL DEFAULT '{}'::jsonb,
				missing_info TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (tenant_id, counterparty)
			)`},
		{"ignore_list table", `
			CREATE TABLE IF NOT EXISTS ignore_list (
				tenant_id TEXT NOT NULL,
				counterparty TEXT NOT NULL,
				label TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (tenant_id, counterparty)
			)`},
		{"products table", `
			CREATE TABLE IF NOT EXISTS products (
				id SERIAL PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				name VARCHAR(255) NOT NULL,
				price DECIMAL(15, 2) NOT NULL DEFAULT 0,
				description TEXT NOT NULL DEFAULT '',
				category VARCHAR(100) NOT NULL DEFAULT '',
				in_stock BOOLEAN NOT NULL DEFAULT true,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (tenant_id, name)
			)`},
		{"knowledge_chunks table", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS knowledge_chunks (
				id BIGSERIAL PRIMARY KEY,
				namespace TEXT NOT NULL,
				document_id TEXT NOT NULL,
				chunk_index INT NOT NULL,
				source_label TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL,
				embedding vector(%d) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (namespace, document_id, chunk_index)
			)`, dimensions)},
		{"knowledge_chunks embedding index", `CREATE INDEX IF NOT EXISTS knowledge_chunks_embedding_idx ON knowledge_chunks USING hnsw (embedding vector_cosine_ops)`},
		{"knowledge_chunks namespace index", `CREATE INDEX IF NOT EXISTS knowledge_chunks_namespace_idx ON knowledge_chunks (namespace)`},
	}

	for _, m := range steps {
		if _, err := p.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("create %s: %w", m.name, err)
		}
	}
	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
