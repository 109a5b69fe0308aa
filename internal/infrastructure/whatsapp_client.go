package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// WhatsAppClient is one tenant's linked WhatsApp device.
type WhatsAppClient struct {
	Client   *whatsmeow.Client
	TenantID string

	logger zerolog.Logger
	qrCode string
	qrLock sync.RWMutex
}

func NewWhatsAppClient(ctx context.Context, dbPath, tenantID string, logger zerolog.Logger) (*WhatsAppClient, error) {
	logger = logger.With().Str("tenant_id", tenantID).Logger()

	container, err := sqlstore.New(ctx, "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)", waLog.Zerolog(logger.With().Str("module", "store").Logger()))
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, waLog.Zerolog(logger.With().Str("module", "client").Logger()))

	return &WhatsAppClient{
		Client:   client,
		TenantID: tenantID,
		logger:   logger,
	}, nil
}

// Connect opens the socket. A device without a stored ID starts QR pairing,
// which stops when ctx is cancelled.
func (w *WhatsAppClient) Connect(ctx context.Context) error {
	if w.Client.Store.ID != nil {
		if err := w.Client.Connect(); err != nil {
			return err
		}
		w.logger.Info().Msg("whatsapp connected with existing session")
		return nil
	}

	qrChan, err := w.Client.GetQRChannel(ctx)
	if err != nil && !errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := w.Client.Connect(); err != nil {
		return err
	}
	if qrChan != nil {
		go w.watchQR(qrChan)
	}
	return nil
}

func (w *WhatsAppClient) watchQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		if evt.Event == "code" {
			w.qrLock.Lock()
			w.qrCode = evt.Code
			w.qrLock.Unlock()
			w.logger.Info().Msg("pairing qr code refreshed")
			continue
		}
		if evt.Event == "success" {
			w.qrLock.Lock()
			w.qrCode = ""
			w.qrLock.Unlock()
		}
		w.logger.Info().Str("event", evt.Event).Msg("pairing event")
	}
}

func (w *WhatsAppClient) GetQR() string {
	w.qrLock.RLock()
	defer w.qrLock.RUnlock()
	return w.qrCode
}

func (w *WhatsAppClient) IsLoggedIn() bool {
	return w.Client.Store.ID != nil
}

// IsConnected returns true if client is connected and logged in
func (w *WhatsAppClient) IsConnected() bool {
	return w.Client.IsConnected() && w.Client.Store.ID != nil
}

func (w *WhatsAppClient) GetPhoneNumber() string {
	if w.Client.Store.ID == nil {
		return ""
	}
	return w.Client.Store.ID.User
}

// Logout unlinks the device and starts a fresh pairing.
func (w *WhatsAppClient) Logout(ctx context.Context) error {
	w.qrLock.Lock()
	w.qrCode = ""
	w.qrLock.Unlock()

	if err := w.Client.Logout(ctx); err != nil {
		return err
	}
	w.Client.Disconnect()
	return w.Connect(ctx)
}

func (w *WhatsAppClient) Disconnect() {
	w.Client.Disconnect()
}

func (w *WhatsAppClient) AddHandler(handler func(interface{})) {
	w.Client.AddEventHandler(handler)
}

// SendMessage accepts a full JID or a bare phone number.
func (w *WhatsAppClient) SendMessage(ctx context.Context, to, content string) error {
	jid, err := ParseAddress(to)
	if err != nil {
		return err
	}
	_, err = w.Client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: &content,
	})
	return err
}

func ParseAddress(to string) (types.JID, error) {
	if !strings.Contains(to, "@") {
		to += "@" + types.DefaultUserServer
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return types.JID{}, fmt.Errorf("invalid address %q: %w", to, err)
	}
	return jid, nil
}

// ParseMessage returns the chat address and text of an inbound message.
// ok is false for our own messages and anything without text.
func ParseMessage(evt *events.Message) (from, text string, ok bool) {
	if evt.Info.IsFromMe || evt.Message == nil {
		return "", "", false
	}
	if evt.Message.Conversation != nil {
		text = evt.Message.GetConversation()
	} else if evt.Message.ExtendedTextMessage != nil {
		text = evt.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return "", "", false
	}
	return evt.Info.Chat.String(), text, true
}
