package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ObisDevs/Salesboy-sub000/internal/repository"
	"github.com/ObisDevs/Salesboy-sub000/internal/usecases"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	var tenantID, documentID, label, file string
	var purge bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, embed and index a document into a tenant's knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := openDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			embedder, _, err := newEmbeddingGateway(ctx, cfg, logger)
			if err != nil {
				return err
			}
			svc := usecases.NewIngestService(embedder, repository.NewKnowledgeRepository(db.Pool), cfg.ChunkTokens, logger)

			if purge {
				if err := svc.PurgeTenant(ctx, tenantID); err != nil {
					return err
				}
				logger.Info().Str("tenant_id", tenantID).Msg("knowledge base purged")
				return nil
			}

			if file == "" {
				return errors.New("--file is required")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			if documentID == "" {
				documentID = filepath.Base(file)
			}
			if label == "" {
				label = filepath.Base(file)
			}

			n, err := svc.Ingest(ctx, tenantID, documentID, label, string(data))
			if err != nil {
				return err
			}
			logger.Info().
				Str("tenant_id", tenantID).
				Str("document_id", documentID).
				Int("chunks", n).
				Msg("document indexed")
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&documentID, "document", "", "document id (default: file name)")
	cmd.Flags().StringVar(&label, "label", "", "source label shown in answers (default: file name)")
	cmd.Flags().StringVar(&file, "file", "", "text file to ingest")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete every indexed chunk of the tenant instead")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
