package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	httpapi "github.com/ObisDevs/Salesboy-sub000/internal/interfaces/http"
	"github.com/ObisDevs/Salesboy-sub000/internal/repository"
	"github.com/ObisDevs/Salesboy-sub000/internal/usecases"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestrator: webhook, tenant API and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			if !skipMigrate {
				if err := db.Migrate(ctx, cfg.EmbeddingDimensions); err != nil {
					return err
				}
			}

			// Providers, in fallback order
			embedder, gemini, err := newEmbeddingGateway(ctx, cfg, logger)
			if err != nil {
				return err
			}
			llm := infrastructure.NewLLMGateway([]interfaces.TextProvider{
				infrastructure.NewGroqProvider(cfg.Groq),
				gemini,
				infrastructure.NewOpenAIProvider(cfg.OpenAI, cfg.EmbeddingDimensions),
				infrastructure.NewAnthropicProvider(cfg.Anthropic),
			}, cfg.LLMTimeout, logger)

			locker, closeLocker, err := newPairLocker(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("session lock: %w", err)
			}
			defer closeLocker()

			// Repositories
			tenantRepo := repository.NewTenantRepository(db.Pool)
			messageRepo := repository.NewMessageRepository(db.Pool)
			configRepo := repository.NewConfigRepository(db.Pool)
			sessionRepo := repository.NewSessionRepository(db.Pool)
			ignoreRepo := repository.NewIgnoreRepository(db.Pool)
			productRepo := repository.NewProductRepository(db.Pool)
			knowledgeRepo := repository.NewKnowledgeRepository(db.Pool)

			// Usecases
			catalog := usecases.DefaultTaskCatalog()
			gateway := infrastructure.NewGatewayClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.SendTimeout, cfg.StatusCheckTimeout)
			ingest := usecases.NewIngestService(embedder, knowledgeRepo, cfg.ChunkTokens, logger)

			messageService := usecases.NewMessageService(usecases.Dependencies{
				Tenants:    tenantRepo,
				Ignores:    ignoreRepo,
				Messages:   messageRepo,
				Configs:    configRepo,
				Classifier: usecases.NewIntentClassifier(llm, sessionRepo, configRepo, catalog, logger),
				Retriever:  usecases.NewKnowledgeRetriever(embedder, knowledgeRepo, configRepo, productRepo, logger),
				Composer:   usecases.NewResponseComposer(llm),
				Dispatcher: usecases.NewTaskDispatcher(configRepo, catalog, cfg.AutomationBaseURL, cfg.DispatchSecret, cfg.DispatchTimeout, logger),
				Messenger:  gateway,
				Locker:     locker,
				Catalog:    catalog,
			}, usecases.ConversationOptions{
				HistoryWindow:      cfg.HistoryWindow,
				HistoryMemory:      cfg.HistoryMemory,
				NewConversationGap: cfg.NewConversationGap,
				TopK:               cfg.RetrievalTopK,
				LockWait:           cfg.SessionLockWait,
			}, logger)

			dashboard := usecases.NewDashboardUsecase(configRepo, ignoreRepo, productRepo, ingest, gateway)

			if !cfg.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}
			r := gin.New()
			r.Use(gin.Recovery())
			handler := httpapi.NewHandler(messageService, dashboard, httpapi.WebhookConfig{
				Secret:           cfg.WebhookSecret,
				EnforceSignature: cfg.WebhookEnforceSignature,
			}, logger)
			httpapi.SetupRoutes(r, handler, httpapi.NewMiddleware(cfg.JWTSecret))

			logger.Info().
				Str("session_lock", cfg.SessionLock).
				Bool("enforce_signature", cfg.WebhookEnforceSignature).
				Msg("orchestrator ready")
			return runServer(ctx, "0.0.0.0:"+cfg.Port, r, logger)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply schema migrations on start")
	return cmd
}
