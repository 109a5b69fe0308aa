package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

// GatewayHandler serves the WhatsApp transport gateway: one device per tenant.
type GatewayHandler struct {
	waManager   *infrastructure.WhatsAppManager
	sendTimeout time.Duration
	logger      zerolog.Logger
}

func NewGatewayHandler(waManager *infrastructure.WhatsAppManager, sendTimeout time.Duration, logger zerolog.Logger) *GatewayHandler {
	return &GatewayHandler{
		waManager:   waManager,
		sendTimeout: sendTimeout,
		logger:      logger.With().Str("component", "gateway_http").Logger(),
	}
}

func SetupGatewayRoutes(r *gin.Engine, g *GatewayHandler, apiKey string) {
	r.Use(RequestLogger(g.logger))
	r.Use(Metrics())
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	api.Use(APIKeyRequired(apiKey))
	{
		api.POST("/send", g.Send)
		api.POST("/sessions/:tenant/connect", g.Connect)
		api.GET("/sessions/:tenant/qr", g.QRCode)
		api.GET("/sessions/:tenant/status", g.Status)
		api.POST("/sessions/:tenant/logout", g.Logout)
	}
}

func (g *GatewayHandler) Send(c *gin.Context) {
	var payload struct {
		TenantID string `json:"tenantId"`
		To       string `json:"to"`
		Message  string `json:"message"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidSlug(payload.TenantID) || !ValidAddress(payload.To) || strings.TrimSpace(payload.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenantId, to and message are required"})
		return
	}

	client := g.waManager.GetClient(payload.TenantID)
	if client == nil || !client.IsConnected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "WhatsApp session not connected"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), g.sendTimeout)
	defer cancel()
	if err := client.SendMessage(ctx, payload.To, payload.Message); err != nil {
		g.logger.Error().Err(err).Str("tenant_id", payload.TenantID).Msg("send failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Send failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// tenantParam validates the :tenant path segment.
func tenantParam(c *gin.Context) (string, bool) {
	id := c.Param("tenant")
	if !ValidSlug(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant"})
		return "", false
	}
	return id, true
}

// pairingContext outlives the request: QR pairing continues after the response.
func pairingContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (g *GatewayHandler) Connect(c *gin.Context) {
	id, ok := tenantParam(c)
	if !ok {
		return
	}
	client, err := g.waManager.ConnectClient(pairingContext(c), id)
	if err != nil {
		g.logger.Error().Err(err).Str("tenant_id", id).Msg("connect failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "connecting",
		"loggedIn": client.IsLoggedIn(),
		"phone":    client.GetPhoneNumber(),
	})
}

// QRCode returns the pairing QR as a PNG.
func (g *GatewayHandler) QRCode(c *gin.Context) {
	id, ok := tenantParam(c)
	if !ok {
		return
	}
	ctx := pairingContext(c)
	client, err := g.waManager.GetOrCreateClient(ctx, id)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to create client")
		return
	}

	if client.Client.Store.ID == nil && !client.IsConnected() {
		if err := client.Connect(ctx); err != nil {
			c.String(http.StatusInternalServerError, "Failed to connect")
			return
		}
	}

	qrCodeString := client.GetQR()
	if qrCodeString == "" {
		if client.IsLoggedIn() {
			c.String(http.StatusOK, "Already logged in")
			return
		}
		c.String(http.StatusAccepted, "QR code not yet available. Please wait...")
		return
	}

	png, err := qrcode.Encode(qrCodeString, qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (g *GatewayHandler) Status(c *gin.Context) {
	id, ok := tenantParam(c)
	if !ok {
		return
	}
	status := infrastructure.SessionStatus{TenantID: id}
	if client := g.waManager.GetClient(id); client != nil {
		status.Connected = client.IsConnected()
		status.LoggedIn = client.IsLoggedIn()
		status.HasQR = client.GetQR() != ""
	}
	c.JSON(http.StatusOK, status)
}

func (g *GatewayHandler) Logout(c *gin.Context) {
	id, ok := tenantParam(c)
	if !ok {
		return
	}
	// Already logged out is not an error for the caller
	if err := g.waManager.LogoutClient(pairingContext(c), id); err != nil {
		g.logger.Warn().Err(err).Str("tenant_id", id).Msg("logout")
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
