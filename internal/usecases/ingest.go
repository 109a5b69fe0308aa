package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/rs/zerolog"
)

var ErrEmptyDocument = errors.New("document has no text")

// IngestService chunks, embeds and indexes tenant documents.
type IngestService struct {
	embedder    interfaces.Embedder
	index       interfaces.VectorIndex
	chunkTokens int
	logger      zerolog.Logger
}

func NewIngestService(embedder interfaces.Embedder, index interfaces.VectorIndex, chunkTokens int, logger zerolog.Logger) *IngestService {
	if chunkTokens <= 0 {
		chunkTokens = 500
	}
	return &IngestService{
		embedder:    embedder,
		index:       index,
		chunkTokens: chunkTokens,
		logger:      logger.With().Str("component", "ingest").Logger(),
	}
}

// Ingest replaces every chunk of documentID in the tenant's namespace and
// returns how many chunks were indexed. Nothing is written if any chunk
// fails to embed.
func (s *IngestService) Ingest(ctx context.Context, tenantID, documentID, label, text string) (int, error) {
	pieces := ChunkSentences(text, s.chunkTokens)
	if len(pieces) == 0 {
		return 0, ErrEmptyDocument
	}

	namespace := TenantNamespace(tenantID)
	chunks := make([]entities.KnowledgeChunk, 0, len(pieces))
	for i, piece := range pieces {
		vector, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", i, documentID, err)
		}
		chunks = append(chunks, entities.KnowledgeChunk{
			Namespace:   namespace,
			DocumentID:  documentID,
			ChunkIndex:  i,
			SourceLabel: label,
			Content:     piece,
			Embedding:   vector,
		})
	}

	if err := s.index.ReplaceDocument(ctx, namespace, documentID, chunks); err != nil {
		return 0, fmt.Errorf("index %s: %w", documentID, err)
	}

	s.logger.Info().Str("tenant_id", tenantID).Str("document_id", documentID).Int("chunks", len(chunks)).Msg("document ingested")
	return len(chunks), nil
}

func (s *IngestService) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	return s.index.DeleteDocument(ctx, TenantNamespace(tenantID), documentID)
}

func (s *IngestService) PurgeTenant(ctx context.Context, tenantID string) error {
	return s.index.PurgeNamespace(ctx, TenantNamespace(tenantID))
}
