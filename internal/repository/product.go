package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{
		db: db,
	}
}

func (r *ProductRepository) ListProducts(ctx context.Context, tenantID string) ([]entities.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, name, price, description, category, in_stock
		FROM products WHERE tenant_id = $1 ORDER BY category, name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []entities.Product{}
	for rows.Next() {
		var p entities.Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Price, &p.Description, &p.Category, &p.InStock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ImportResult counts what an import did.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}

// ImportCSV upserts catalog rows in one transaction. Columns:
// name,price,category,description,in_stock. A header row is detected and skipped.
func (r *ProductRepository) ImportCSV(ctx context.Context, tenantID string, src io.Reader) (*ImportResult, error) {
	products, skipped, err := ParseProductCSV(src)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO products (tenant_id, name, price, category, description, in_stock, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (tenant_id, name) DO UPDATE SET
				price = EXCLUDED.price,
				category = EXCLUDED.category,
				description = EXCLUDED.description,
				in_stock = EXCLUDED.in_stock,
				updated_at = NOW()
		`, tenantID, p.Name, p.Price, p.Category, p.Description, p.InStock)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("upsert products: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ImportResult{Imported: len(products), Skipped: skipped}, nil
}

// ParseProductCSV reads catalog rows. Rows that cannot be parsed are reported
// in skipped rather than failing the whole file.
func ParseProductCSV(src io.Reader) (products []entities.Product, skipped []string, err error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("failed to read CSV: %w", readErr)
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			skipped = append(skipped, fmt.Sprintf("line %d: missing name or price", line))
			continue
		}

		price, perr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if perr != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: invalid price %q", line, record[1]))
			continue
		}

		p := entities.Product{
			Name:    strings.TrimSpace(record[0]),
			Price:   price,
			InStock: true,
		}
		if len(record) > 2 {
			p.Category = strings.TrimSpace(record[2])
		}
		if len(record) > 3 {
			p.Description = strings.TrimSpace(record[3])
		}
		if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
			inStock, berr := strconv.ParseBool(strings.TrimSpace(record[4]))
			if berr != nil {
				skipped = append(skipped, fmt.Sprintf("line %d: invalid in_stock %q", line, record[4]))
				continue
			}
			p.InStock = inStock
		}
		products = append(products, p)
	}
	return products, skipped, nil
}
