package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository persists the in-progress task of each (tenant, counterparty).
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetActiveSession returns the pair's collecting session, or nil.
func (r *SessionRepository) GetActiveSession(ctx context.Context, tenantID, counterparty string) (*entities.IntentSession, error) {
	var s entities.IntentSession
	var taskType *string
	var status string
	err := r.db.QueryRow(ctx, `
		SELECT tenant_id, counterparty, task_type, status, payload, missing_info, created_at, updated_at
		FROM intent_sessions
		WHERE tenant_id = $1 AND counterparty = $2 AND status = $3
	`, tenantID, counterparty, string(entities.StatusCollecting)).Scan(
		&s.TenantID, &s.Counterparty, &taskType, &status, &s.Payload, &s.MissingInfo, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get intent session: %w", err)
	}
	if taskType != nil {
		s.TaskType = entities.TaskType(*taskType)
	}
	s.Status = entities.TaskStatus(status)
	return &s, nil
}

// UpsertSession writes the pair's session. Concurrent writers are last-write-wins.
func (r *SessionRepository) UpsertSession(ctx context.Context, s *entities.IntentSession) error {
	var taskType *string
	if s.TaskType != "" {
		t := string(s.TaskType)
		taskType = &t
	}
	payload := s.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	missing := s.MissingInfo
	if missing == nil {
		missing = []string{}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO intent_sessions (tenant_id, counterparty, task_type, status, payload, missing_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (tenant_id, counterparty) DO UPDATE SET
			task_type = EXCLUDED.task_type,
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			missing_info = EXCLUDED.missing_info,
			updated_at = NOW()
	`, s.TenantID, s.Counterparty, taskType, string(s.Status), payload, missing)
	if err != nil {
		return fmt.Errorf("upsert intent session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, tenantID, counterparty string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM intent_sessions WHERE tenant_id = $1 AND counterparty = $2`, tenantID, counterparty)
	if err != nil {
		return fmt.Errorf("delete intent session: %w", err)
	}
	return nil
}
