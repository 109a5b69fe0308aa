package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/ObisDevs/Salesboy-sub000/internal/metrics"
	"github.com/ObisDevs/Salesboy-sub000/internal/usecases"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const defaultProcessTimeout = 2 * time.Minute

// WebhookConfig controls verification of the gateway's inbound webhook.
type WebhookConfig struct {
	Secret           string
	EnforceSignature bool
	ProcessTimeout   time.Duration
}

type Handler struct {
	processor interfaces.MessageProcessor
	dashboard *usecases.DashboardUsecase
	webhook   WebhookConfig
	logger    zerolog.Logger
}

func NewHandler(processor interfaces.MessageProcessor, dashboard *usecases.DashboardUsecase, webhook WebhookConfig, logger zerolog.Logger) *Handler {
	if webhook.ProcessTimeout <= 0 {
		webhook.ProcessTimeout = defaultProcessTimeout
	}
	return &Handler{
		processor: processor,
		dashboard: dashboard,
		webhook:   webhook,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, middleware *Middleware) {
	r.Use(RequestLogger(h.logger))
	r.Use(Metrics())
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Called by the WhatsApp transport gateway
	r.POST("/webhook/whatsapp", h.HandleWhatsAppWebhook)

	if h.dashboard == nil {
		return
	}

	// Tenant dashboard API
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerTenant(5, 10))
	{
		api.GET("/bot-config", h.GetBotConfig)
		api.PUT("/bot-config", h.SaveBotConfig)

		api.GET("/ignore-list", h.ListIgnored)
		api.POST("/ignore-list", h.AddIgnored)
		api.DELETE("/ignore-list/:address", h.RemoveIgnored)

		api.GET("/products", h.ListProducts)
		api.POST("/products/import", h.ImportProducts)

		api.POST("/documents", h.IngestDocument)
		api.DELETE("/documents/:id", h.DeleteDocument)
		api.DELETE("/documents", h.PurgeKnowledge)

		api.GET("/whatsapp/status", h.GetWhatsAppStatus)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type webhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// HandleWhatsAppWebhook runs the pipeline synchronously and returns its summary.
func (h *Handler) HandleWhatsAppWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	if !h.checkSignature(c, body) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	payload.UserID = strings.TrimSpace(payload.UserID)
	if payload.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if strings.TrimSpace(payload.From) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from is required"})
		return
	}

	// The sender may hang up; the reply must still go out.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.webhook.ProcessTimeout)
	defer cancel()

	result, err := h.processor.ProcessMessage(ctx, entities.InboundMessage{
		TenantID: payload.UserID,
		From:     payload.From,
		Body:     TruncateString(SanitizeString(payload.Message), MaxMessageLength),
	})
	if errors.Is(err, usecases.ErrUnknownTenant) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tenant"})
		return
	}
	if err != nil {
		metrics.InboundMessages.WithLabelValues("failed").Inc()
		h.logger.Error().Err(err).Str("tenant_id", payload.UserID).Msg("webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// checkSignature reports whether the request may proceed. Without
// enforcement a bad signature is logged and tolerated.
func (h *Handler) checkSignature(c *gin.Context, body []byte) bool {
	if h.webhook.Secret == "" {
		return !h.webhook.EnforceSignature
	}
	if infrastructure.VerifySignature(h.webhook.Secret, body, c.GetHeader("X-Signature")) {
		return true
	}

	metrics.InboundSignatureFailures.Inc()
	h.logger.Warn().
		Str("request_id", c.GetString(ctxRequestID)).
		Bool("header_present", c.GetHeader("X-Signature") != "").
		Bool("enforced", h.webhook.EnforceSignature).
		Msg("webhook signature missing or invalid")
	return !h.webhook.EnforceSignature
}
