package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const deviceFilePrefix = "tenant_"

// WhatsAppManager owns one WhatsApp client per tenant.
type WhatsAppManager struct {
	clients map[string]*WhatsAppClient
	mu      sync.RWMutex
	baseDir string
	logger  zerolog.Logger

	// HandlerFactory builds the event handler registered on every new client.
	HandlerFactory func(tenantID string) func(interface{})
}

func NewWhatsAppManager(baseDir string, logger zerolog.Logger) (*WhatsAppManager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create devices directory: %w", err)
	}

	return &WhatsAppManager{
		clients: make(map[string]*WhatsAppClient),
		baseDir: baseDir,
		logger:  logger.With().Str("component", "whatsapp_manager").Logger(),
	}, nil
}

func (m *WhatsAppManager) GetClient(tenantID string) *WhatsAppClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[tenantID]
}

func (m *WhatsAppManager) devicePath(tenantID string) string {
	return filepath.Join(m.baseDir, deviceFilePrefix+tenantID+".db")
}

func (m *WhatsAppManager) GetOrCreateClient(ctx context.Context, tenantID string) (*WhatsAppClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[tenantID]; exists {
		return client, nil
	}

	client, err := NewWhatsAppClient(ctx, m.devicePath(tenantID), tenantID, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create WhatsApp client for tenant %s: %w", tenantID, err)
	}

	if m.HandlerFactory != nil {
		client.AddHandler(m.HandlerFactory(tenantID))
	}

	m.clients[tenantID] = client
	return client, nil
}

func (m *WhatsAppManager) ConnectClient(ctx context.Context, tenantID string) (*WhatsAppClient, error) {
	client, err := m.GetOrCreateClient(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if client.Client.IsConnected() {
		return client, nil
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect WhatsApp for tenant %s: %w", tenantID, err)
	}
	return client, nil
}

// LogoutClient unlinks the tenant's device. Missing clients are treated as
// already logged out.
func (m *WhatsAppManager) LogoutClient(ctx context.Context, tenantID string) error {
	m.mu.RLock()
	client, exists := m.clients[tenantID]
	m.mu.RUnlock()

	if !exists || client == nil {
		return nil
	}
	if !client.IsLoggedIn() && !client.Client.IsConnected() {
		return nil
	}
	return client.Logout(ctx)
}

// RestoreSessions reconnects every tenant that has a device file on disk.
func (m *WhatsAppManager) RestoreSessions(ctx context.Context) []string {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		m.logger.Warn().Err(err).Msg("could not list device files")
		return nil
	}

	var restored []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, deviceFilePrefix) || filepath.Ext(name) != ".db" {
			continue
		}
		tenantID := strings.TrimSuffix(strings.TrimPrefix(name, deviceFilePrefix), ".db")
		if tenantID == "" {
			continue
		}
		client, err := m.GetOrCreateClient(ctx, tenantID)
		if err != nil {
			m.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("restore failed")
			continue
		}
		if !client.IsLoggedIn() {
			continue
		}
		if err := client.Connect(ctx); err != nil {
			m.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("reconnect failed")
			continue
		}
		restored = append(restored, tenantID)
	}
	return restored
}

// DisconnectAll disconnects all clients (for graceful shutdown)
func (m *WhatsAppManager) DisconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.Disconnect()
	}
	m.clients = make(map[string]*WhatsAppClient)
}
