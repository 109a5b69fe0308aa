package usecases

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/rs/zerolog"
)

type capturedRequest struct {
	path      string
	body      []byte
	signature string
	delivery  string
}

func captureServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{r.URL.Path, body, r.Header.Get("X-Signature"), r.Header.Get("X-Delivery-ID")})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func sampleTask() entities.Task {
	return entities.Task{
		TaskType:            entities.TaskCreateOrder,
		Payload:             map[string]any{"items": "2 blue shirts"},
		UserID:              "t1",
		Counterparty:        "2348030000000@s.whatsapp.net",
		OriginalMessage:     "Tola, 08030000000",
		ConversationContext: "Customer: I want to buy 2 blue shirts",
	}
}

func TestDispatchSignsAndPostsToBothTargets(t *testing.T) {
	automation, automationReqs := captureServer(t, http.StatusOK)
	callback, callbackReqs := captureServer(t, http.StatusAccepted)

	configs := fakeConfigs{"t1": {Metadata: entities.TenantMetadata{CallbackWebhookURL: callback.URL + "/hooks/salesboy"}}}
	d := NewTaskDispatcher(configs, DefaultTaskCatalog(), automation.URL+"/", "dispatch-secret", time.Second, zerolog.Nop())
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	outcome := d.Dispatch(context.Background(), sampleTask())

	if len(outcome.Attempts) != 2 || outcome.DeliveryID == "" {
		t.Fatalf("outcome = %+v", outcome)
	}
	for _, a := range outcome.Attempts {
		if a.Error != "" {
			t.Errorf("%s failed: %s", a.Target, a.Error)
		}
	}

	got := automationReqs()
	if len(got) != 1 || got[0].path != "/webhook/create-order" {
		t.Fatalf("automation requests = %+v", got)
	}
	if !infrastructure.VerifySignature("dispatch-secret", got[0].body, got[0].signature) {
		t.Error("automation signature invalid")
	}
	if got[0].delivery != outcome.DeliveryID {
		t.Errorf("delivery id header = %q", got[0].delivery)
	}

	var body DispatchPayload
	if err := json.Unmarshal(got[0].body, &body); err != nil {
		t.Fatal(err)
	}
	if body.TaskType != entities.TaskCreateOrder || body.FromNumber != "2348030000000@s.whatsapp.net" ||
		body.UserID != "t1" || body.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("body = %+v", body)
	}

	cb := callbackReqs()
	if len(cb) != 1 || cb[0].path != "/hooks/salesboy" || string(cb[0].body) != string(got[0].body) {
		t.Errorf("callback requests = %+v", cb)
	}
}

func TestDispatchFailuresAreIndependent(t *testing.T) {
	callback, callbackReqs := captureServer(t, http.StatusOK)
	configs := fakeConfigs{"t1": {Metadata: entities.TenantMetadata{
		AutomationWebhookURL: "http://127.0.0.1:1",
		CallbackWebhookURL:   callback.URL,
	}}}
	d := NewTaskDispatcher(configs, DefaultTaskCatalog(), "", "s", time.Second, zerolog.Nop())

	outcome := d.Dispatch(context.Background(), sampleTask())

	if outcome.Attempts[0].Error == "" {
		t.Error("unreachable automation endpoint should record an error")
	}
	if outcome.Attempts[1].Error != "" || len(callbackReqs()) != 1 {
		t.Error("callback must still be delivered")
	}
}

func TestDispatchWithoutEndpointsNeverFails(t *testing.T) {
	d := NewTaskDispatcher(fakeConfigs{}, DefaultTaskCatalog(), "", "s", time.Second, zerolog.Nop())
	outcome := d.Dispatch(context.Background(), sampleTask())
	if len(outcome.Attempts) != 1 || outcome.Attempts[0].Error == "" {
		t.Errorf("outcome = %+v", outcome)
	}
}

// Dispatch promises no deduplication: the same task twice is two deliveries.
func TestDispatchTwiceIsTwoDeliveries(t *testing.T) {
	automation, reqs := captureServer(t, http.StatusOK)
	d := NewTaskDispatcher(fakeConfigs{}, DefaultTaskCatalog(), automation.URL, "s", time.Second, zerolog.Nop())

	first := d.Dispatch(context.Background(), sampleTask())
	second := d.Dispatch(context.Background(), sampleTask())

	if len(reqs()) != 2 {
		t.Errorf("requests = %d, want 2", len(reqs()))
	}
	if first.DeliveryID == second.DeliveryID {
		t.Error("each dispatch should get its own delivery id")
	}
}
