package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// MessageRepository is the append-only conversation log.
type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) AppendMessage(ctx context.Context, msg *entities.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	metadata := msg.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (id, tenant_id, counterparty, body, direction, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.TenantID, msg.Counterparty, msg.Body, string(msg.Direction), metadata, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListRecent returns up to limit messages of the pair, oldest first.
func (r *MessageRepository) ListRecent(ctx context.Context, tenantID, counterparty string, limit int) ([]entities.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, counterparty, body, direction, metadata, created_at
		FROM messages
		WHERE tenant_id = $1 AND counterparty = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, tenantID, counterparty, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []entities.Message{}
	for rows.Next() {
		var m entities.Message
		var direction string
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Counterparty, &m.Body, &direction, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Direction = entities.Direction(direction)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.Reverse(messages)
	return messages, nil
}
