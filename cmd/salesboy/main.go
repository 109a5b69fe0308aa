package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/config"
	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/ObisDevs/Salesboy-sub000/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "salesboy",
		Short:         "WhatsApp business automation: conversational orchestrator and transport gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(tenantCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config and the logger shared by every command.
func bootstrap() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := infrastructure.NewLogger(cfg.IsDevelopment())
	return cfg, logger, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*infrastructure.PostgresClient, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL, cfg.EmbeddingDimensions, logger)
}

// newEmbeddingGateway wires Gemini as primary and OpenAI as fallback.
func newEmbeddingGateway(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*infrastructure.EmbeddingGateway, *infrastructure.GeminiProvider, error) {
	gemini, err := infrastructure.NewGeminiProvider(ctx, cfg.Gemini)
	if err != nil {
		return nil, nil, err
	}
	openai := infrastructure.NewOpenAIProvider(cfg.OpenAI, cfg.EmbeddingDimensions)
	return infrastructure.NewEmbeddingGateway(gemini, openai, cfg.EmbeddingTimeout, logger), gemini, nil
}

func newPairLocker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (interfaces.PairLocker, func(), error) {
	switch cfg.SessionLock {
	case "local":
		return infrastructure.NewLocalPairLocker(), func() {}, nil
	case "redis":
		client, err := infrastructure.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return infrastructure.NewRedisPairLocker(client, cfg.SessionLockTTL, logger), func() { client.Close() }, nil
	default:
		return infrastructure.NoopPairLocker{}, func() {}, nil
	}
}

// runServer serves until ctx is cancelled, then drains for up to 15s.
func runServer(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	var id, name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a tenant so its webhook traffic is accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			tenants := repository.NewTenantRepository(db.Pool)
			tenant, err := tenants.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if tenant == nil {
				tenant = &entities.Tenant{ID: id}
			}
			if name != "" {
				tenant.Name = name
			}
			if err := tenants.Create(cmd.Context(), tenant); err != nil {
				return err
			}
			logger.Info().Str("tenant_id", tenant.ID).Str("name", tenant.Name).Msg("tenant saved")
			return nil
		},
	}
	add.Flags().StringVar(&id, "id", "", "tenant id (required)")
	add.Flags().StringVar(&name, "name", "", "display name")
	_ = add.MarkFlagRequired("id")

	cmd.AddCommand(add)
	return cmd
}
