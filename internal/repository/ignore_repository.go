package repository

import (
	"context"
	"fmt"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IgnoreRepository struct {
	db *pgxpool.Pool
}

func NewIgnoreRepository(db *pgxpool.Pool) *IgnoreRepository {
	return &IgnoreRepository{db: db}
}

func (r *IgnoreRepository) IsIgnored(ctx context.Context, tenantID, counterparty string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ignore_list WHERE tenant_id = $1 AND counterparty = $2)`,
		tenantID, counterparty).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ignore list: %w", err)
	}
	return exists, nil
}

func (r *IgnoreRepository) List(ctx context.Context, tenantID string) ([]entities.IgnoreEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tenant_id, counterparty, label, notes, created_at
		FROM ignore_list WHERE tenant_id = $1 ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list ignore entries: %w", err)
	}
	defer rows.Close()

	entries := []entities.IgnoreEntry{}
	for rows.Next() {
		var e entities.IgnoreEntry
		if err := rows.Scan(&e.TenantID, &e.Counterparty, &e.Label, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *IgnoreRepository) Add(ctx context.Context, e *entities.IgnoreEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ignore_list (tenant_id, counterparty, label, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, counterparty) DO UPDATE SET label = EXCLUDED.label, notes = EXCLUDED.notes
		RETURNING created_at
	`, e.TenantID, e.Counterparty, e.Label, e.Notes).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("add ignore entry: %w", err)
	}
	return nil
}

func (r *IgnoreRepository) Remove(ctx context.Context, tenantID, counterparty string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ignore_list WHERE tenant_id = $1 AND counterparty = $2`, tenantID, counterparty)
	if err != nil {
		return fmt.Errorf("remove ignore entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
