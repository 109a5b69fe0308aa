package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/ObisDevs/Salesboy-sub000/internal/repository"
)

var ErrInvalidConfig = errors.New("invalid bot configuration")

// DashboardUsecase backs the tenant settings API.
type DashboardUsecase struct {
	configRepo  *repository.ConfigRepository
	ignoreRepo  *repository.IgnoreRepository
	productRepo *repository.ProductRepository
	ingest      *IngestService
	gateway     *infrastructure.GatewayClient
}

func NewDashboardUsecase(configRepo *repository.ConfigRepository, ignoreRepo *repository.IgnoreRepository, productRepo *repository.ProductRepository, ingest *IngestService, gateway *infrastructure.GatewayClient) *DashboardUsecase {
	return &DashboardUsecase{
		configRepo:  configRepo,
		ignoreRepo:  ignoreRepo,
		productRepo: productRepo,
		ingest:      ingest,
		gateway:     gateway,
	}
}

// Bot configuration
func (u *DashboardUsecase) GetBotConfig(ctx context.Context, tenantID string) (*entities.BotConfig, error) {
	cfg, err := u.configRepo.GetBotConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		t := entities.DefaultTemperature
		cfg = &entities.BotConfig{TenantID: tenantID, Temperature: &t}
	}
	return cfg, nil
}

func (u *DashboardUsecase) SaveBotConfig(ctx context.Context, cfg *entities.BotConfig) error {
	if err := ValidateBotConfig(cfg); err != nil {
		return err
	}
	return u.configRepo.SaveBotConfig(ctx, cfg)
}

func ValidateBotConfig(cfg *entities.BotConfig) error {
	if t := cfg.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if cfg.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Ignore list
func (u *DashboardUsecase) ListIgnored(ctx context.Context, tenantID string) ([]entities.IgnoreEntry, error) {
	return u.ignoreRepo.List(ctx, tenantID)
}

func (u *DashboardUsecase) AddIgnored(ctx context.Context, e *entities.IgnoreEntry) error {
	return u.ignoreRepo.Add(ctx, e)
}

func (u *DashboardUsecase) RemoveIgnored(ctx context.Context, tenantID, counterparty string) error {
	return u.ignoreRepo.Remove(ctx, tenantID, counterparty)
}

// Product catalog
func (u *DashboardUsecase) ListProducts(ctx context.Context, tenantID string) ([]entities.Product, error) {
	return u.productRepo.ListProducts(ctx, tenantID)
}

func (u *DashboardUsecase) ImportProducts(ctx context.Context, tenantID string, csvData io.Reader) (*repository.ImportResult, error) {
	return u.productRepo.ImportCSV(ctx, tenantID, csvData)
}

// Knowledge documents
func (u *DashboardUsecase) IngestDocument(ctx context.Context, tenantID, documentID, label, text string) (int, error) {
	return u.ingest.Ingest(ctx, tenantID, documentID, label, text)
}

func (u *DashboardUsecase) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	return u.ingest.DeleteDocument(ctx, tenantID, documentID)
}

// PurgeKnowledge drops every indexed chunk of the tenant.
func (u *DashboardUsecase) PurgeKnowledge(ctx context.Context, tenantID string) error {
	return u.ingest.PurgeTenant(ctx, tenantID)
}

// WhatsAppStatus asks the transport gateway about the tenant's device.
func (u *DashboardUsecase) WhatsAppStatus(ctx context.Context, tenantID string) (*infrastructure.SessionStatus, error) {
	return u.gateway.SessionStatus(ctx, tenantID)
}
