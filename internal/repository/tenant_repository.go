package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantRepository owns the tenants table.
type TenantRepository struct {
	db *pgxpool.Pool
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *entities.Tenant) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO tenants (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING created_at`,
		tenant.ID, tenant.Name).Scan(&tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*entities.Tenant, error) {
	var tenant entities.Tenant
	err := r.db.QueryRow(ctx,
		"SELECT id, name, created_at FROM tenants WHERE id = $1",
		id).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) TenantExists(ctx context.Context, id string) (bool, error) {
	tenant, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return tenant != nil, nil
}
