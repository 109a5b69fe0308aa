package infrastructure

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGatewayClientSendMessage(t *testing.T) {
	var got sendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		apiKey = r.Header.Get("X-API-Key")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewGatewayClient(srv.URL+"/", "key-1", time.Second, time.Second)
	if err := client.SendMessage(context.Background(), "t1", "2348000000000@s.whatsapp.net", "hello"); err != nil {
		t.Fatal(err)
	}
	if got.TenantID != "t1" || got.To != "2348000000000@s.whatsapp.net" || got.Message != "hello" {
		t.Errorf("payload = %+v", got)
	}
	if apiKey != "key-1" {
		t.Errorf("api key = %q", apiKey)
	}
}

func TestGatewayClientSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not connected", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewGatewayClient(srv.URL, "", time.Second, time.Second)
	if err := client.SendMessage(context.Background(), "t1", "x", "hello"); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestWebhookForwarderSigns(t *testing.T) {
	var valid bool
	var payload inboundPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		valid = VerifySignature("whsec", body, r.Header.Get("X-Signature"))
		json.Unmarshal(body, &payload)
	}))
	defer srv.Close()

	f := NewWebhookForwarder(srv.URL, "whsec", time.Second)
	if err := f.Forward(context.Background(), "t1", "alice@s.whatsapp.net", "hi"); err != nil {
		t.Fatal(err)
	}
	if !valid {
		t.Error("signature did not verify")
	}
	if payload.UserID != "t1" || payload.From != "alice@s.whatsapp.net" || payload.Message != "hi" {
		t.Errorf("payload = %+v", payload)
	}
}
