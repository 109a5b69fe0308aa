package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/repository"
	"github.com/ObisDevs/Salesboy-sub000/internal/usecases"
	"github.com/gin-gonic/gin"
)

// tenantID is set by AuthRequired.
func tenantID(c *gin.Context) string {
	return c.GetString(ctxTenantID)
}

// ========================================
// Bot configuration
// ========================================

func (h *Handler) GetBotConfig(c *gin.Context) {
	cfg, err := h.dashboard.GetBotConfig(c.Request.Context(), tenantID(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("load bot config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bot config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) SaveBotConfig(c *gin.Context) {
	var cfg entities.BotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidateLength(cfg.SystemPrompt, 0, MaxPromptLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "System prompt too long"})
		return
	}
	cfg.TenantID = tenantID(c)
	cfg.SystemPrompt = SanitizeString(cfg.SystemPrompt)
	cfg.BusinessName = SanitizeString(cfg.BusinessName)

	if err := h.dashboard.SaveBotConfig(c.Request.Context(), &cfg); err != nil {
		if errors.Is(err, usecases.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error().Err(err).Msg("save bot config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save bot config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ========================================
// Ignore list
// ========================================

func (h *Handler) ListIgnored(c *gin.Context) {
	entries, err := h.dashboard.ListIgnored(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ignore list"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) AddIgnored(c *gin.Context) {
	var payload struct {
		Counterparty string `json:"counterparty"`
		Label        string `json:"label"`
		Notes        string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidAddress(payload.Counterparty) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}
	if !ValidateLength(payload.Label, 0, MaxLabelLength) || !ValidateLength(payload.Notes, 0, MaxNotesLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Label or notes too long"})
		return
	}

	entry := &entities.IgnoreEntry{
		TenantID:     tenantID(c),
		Counterparty: payload.Counterparty,
		Label:        SanitizeString(payload.Label),
		Notes:        SanitizeString(payload.Notes),
	}
	if err := h.dashboard.AddIgnored(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add entry"})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) RemoveIgnored(c *gin.Context) {
	address := c.Param("address")
	if !ValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}
	err := h.dashboard.RemoveIgnored(c.Request.Context(), tenantID(c), address)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not on ignore list"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove entry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// ========================================
// Products
// ========================================

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.dashboard.ListProducts(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// ImportProducts takes a multipart "file" field or a raw text/csv body.
func (h *Handler) ImportProducts(c *gin.Context) {
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bad request: missing file"})
			return
		}
		defer file.Close()
		src = file
	}

	result, err := h.dashboard.ImportProducts(c.Request.Context(), tenantID(c), src)
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", tenantID(c)).Msg("product import failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ========================================
// Knowledge documents
// ========================================

func (h *Handler) IngestDocument(c *gin.Context) {
	var payload struct {
		DocumentID string `json:"document_id"`
		Label      string `json:"label"`
		Text       string `json:"text"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidSlug(payload.DocumentID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}
	if !ValidateLength(payload.Text, 1, MaxDocumentLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document text missing or too large"})
		return
	}
	label := payload.Label
	if label == "" {
		label = payload.DocumentID
	}

	chunks, err := h.dashboard.IngestDocument(c.Request.Context(), tenantID(c), payload.DocumentID, TruncateString(SanitizeString(label), MaxLabelLength), SanitizeString(payload.Text))
	if errors.Is(err, usecases.ErrEmptyDocument) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("document_id", payload.DocumentID).Msg("ingest failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to index document"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document_id": payload.DocumentID, "chunks": chunks})
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if !ValidSlug(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}
	err := h.dashboard.DeleteDocument(c.Request.Context(), tenantID(c), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) PurgeKnowledge(c *gin.Context) {
	if err := h.dashboard.PurgeKnowledge(c.Request.Context(), tenantID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge knowledge base"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "purged"})
}

// ========================================
// WhatsApp
// ========================================

func (h *Handler) GetWhatsAppStatus(c *gin.Context) {
	status, err := h.dashboard.WhatsAppStatus(c.Request.Context(), tenantID(c))
	if err != nil {
		h.logger.Warn().Err(err).Msg("gateway status check failed")
		c.JSON(http.StatusOK, gin.H{"tenantId": tenantID(c), "connected": false, "error": "Gateway unreachable"})
		return
	}
	c.JSON(http.StatusOK, status)
}
