package repository

import (
	"context"
	"fmt"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeRepository is the pgvector-backed similarity index. Every query is
// scoped to one namespace.
type KnowledgeRepository struct {
	db *pgxpool.Pool
}

func NewKnowledgeRepository(db *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

// Query returns the topK nearest chunks by cosine similarity, best first.
func (r *KnowledgeRepository) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]entities.VectorMatch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT document_id, chunk_index, source_label, content, 1 - (embedding <=> $2::vector) AS score
		FROM knowledge_chunks
		WHERE namespace = $1
		ORDER BY embedding <=> $2::vector
		LIMIT $3
	`, namespace, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("query knowledge index: %w", err)
	}
	defer rows.Close()

	matches := []entities.VectorMatch{}
	for rows.Next() {
		var m entities.VectorMatch
		if err := rows.Scan(&m.DocumentID, &m.ChunkIndex, &m.SourceLabel, &m.Content, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ReplaceDocument swaps all chunks of a document atomically.
func (r *KnowledgeRepository) ReplaceDocument(ctx context.Context, namespace, documentID string, chunks []entities.KnowledgeChunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_chunks WHERE namespace = $1 AND document_id = $2`, namespace, documentID); err != nil {
		return fmt.Errorf("clear document chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
			INSERT INTO knowledge_chunks (namespace, document_id, chunk_index, source_label, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)
		`, namespace, documentID, c.ChunkIndex, c.SourceLabel, c.Content, pgvector.NewVector(c.Embedding))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert document chunks: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *KnowledgeRepository) DeleteDocument(ctx context.Context, namespace, documentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM knowledge_chunks WHERE namespace = $1 AND document_id = $2`, namespace, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *KnowledgeRepository) PurgeNamespace(ctx context.Context, namespace string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM knowledge_chunks WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("purge namespace: %w", err)
	}
	return nil
}
