package main

import (
	"os/signal"
	"syscall"

	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	httpapi "github.com/ObisDevs/Salesboy-sub000/internal/interfaces/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Run the WhatsApp transport gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			waManager, err := infrastructure.NewWhatsAppManager(cfg.DevicesDir, logger)
			if err != nil {
				return err
			}
			defer waManager.DisconnectAll()

			forwarder := infrastructure.NewWebhookForwarder(cfg.OrchestratorURL, cfg.WebhookSecret, cfg.SendTimeout)
			waManager.HandlerFactory = func(tenantID string) func(interface{}) {
				return forwarder.EventHandler(tenantID, logger)
			}

			restored := waManager.RestoreSessions(ctx)
			logger.Info().Strs("tenants", restored).Msg("restored WhatsApp sessions")

			if !cfg.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}
			r := gin.New()
			r.Use(gin.Recovery())
			httpapi.SetupGatewayRoutes(r, httpapi.NewGatewayHandler(waManager, cfg.SendTimeout, logger), cfg.GatewayAPIKey)

			return runServer(ctx, "0.0.0.0:"+cfg.GatewayPort, r, logger)
		},
	}
}
