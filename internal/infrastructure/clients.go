package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GatewayClient talks to the WhatsApp transport gateway over HTTP.
type GatewayClient struct {
	baseURL       string
	apiKey        string
	sendTimeout   time.Duration
	statusTimeout time.Duration
	httpClient    *http.Client
}

func NewGatewayClient(baseURL, apiKey string, sendTimeout, statusTimeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		sendTimeout:   sendTimeout,
		statusTimeout: statusTimeout,
		httpClient:    &http.Client{},
	}
}

type sendRequest struct {
	TenantID string `json:"tenantId"`
	To       string `json:"to"`
	Message  string `json:"message"`
}

func (g *GatewayClient) SendMessage(ctx context.Context, tenantID, to, content string) error {
	ctx, cancel := context.WithTimeout(ctx, g.sendTimeout)
	defer cancel()

	data, err := json.Marshal(sendRequest{TenantID: tenantID, To: to, Message: content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send via gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway send returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// SessionStatus is the gateway's view of a tenant's WhatsApp connection.
type SessionStatus struct {
	TenantID  string `json:"tenantId"`
	Connected bool   `json:"connected"`
	LoggedIn  bool   `json:"loggedIn"`
	HasQR     bool   `json:"hasQr"`
}

func (g *GatewayClient) SessionStatus(ctx context.Context, tenantID string) (*SessionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, g.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/sessions/"+tenantID+"/status", nil)
	if err != nil {
		return nil, err
	}
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway status returned %d", resp.StatusCode)
	}
	var status SessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode gateway status: %w", err)
	}
	return &status, nil
}

func (g *GatewayClient) authorize(req *http.Request) {
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}
}
