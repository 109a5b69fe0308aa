package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/rs/zerolog"
)

const collectingJSON = `{"intent":"Collecting","confidence":0.8,"task_type":"create_order","status":"collecting",
"missing_info":["customer_info"],"payload":{"items":"2 blue shirts"},
"next_question":"Great choice! What name and phone number should we put on the order?",
"email_content":null,"raw_analysis":"wants to buy, needs contact"}`

const readyJSON = `{"intent":"Task","confidence":0.95,"task_type":"create_order","status":"ready",
"missing_info":[],"payload":{"items":"2 blue shirts","customer_info":"Tola, 08030000000"},
"next_question":null,"email_content":null,"raw_analysis":"order complete"}`

func newTestClassifier(llm *scriptedLLM, sessions *memSessions) *IntentClassifier {
	return NewIntentClassifier(llm, sessions, fakeConfigs{}, DefaultTaskCatalog(), zerolog.Nop())
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"Sure! ```json\n{\"a\":{\"b\":2}}\n``` hope that helps {\"c\":3}", `{"a":{"b":2}}`, true},
		{`prefix {"text":"a } inside","n":1} suffix`, `{"text":"a } inside","n":1}`, true},
		{`{"q":"escaped \" quote }"}`, `{"q":"escaped \" quote }"}`, true},
		{`no json here`, "", false},
		{`{"unbalanced": {"x":1}`, "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractJSONObject(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractJSONObject(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseIntentResultValid(t *testing.T) {
	r, err := ParseIntentResult(readyJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsReadyTask() || *r.TaskType != entities.TaskCreateOrder {
		t.Errorf("result = %+v", r)
	}
	if r.Payload["customer_info"] != "Tola, 08030000000" {
		t.Errorf("payload = %v", r.Payload)
	}
}

func TestParseIntentResultRejects(t *testing.T) {
	cases := map[string]string{
		"missing intent":         `{"confidence":0.5,"status":"cancelled","missing_info":[],"raw_analysis":""}`,
		"unknown intent":         `{"intent":"Chat","confidence":0.5,"status":"cancelled","missing_info":[],"raw_analysis":""}`,
		"confidence too high":    `{"intent":"Response","confidence":1.5,"status":"cancelled","missing_info":[],"raw_analysis":""}`,
		"confidence as string":   `{"intent":"Response","confidence":"high","status":"cancelled","missing_info":[],"raw_analysis":""}`,
		"unknown status":         `{"intent":"Response","confidence":0.5,"status":"done","missing_info":[],"raw_analysis":""}`,
		"unknown task":           `{"intent":"Task","confidence":0.5,"task_type":"refund","status":"ready","missing_info":[],"raw_analysis":""}`,
		"missing_info not list":  `{"intent":"Response","confidence":0.5,"status":"cancelled","missing_info":"none","raw_analysis":""}`,
		"payload not object":     `{"intent":"Response","confidence":0.5,"status":"cancelled","missing_info":[],"payload":[1],"raw_analysis":""}`,
		"missing raw_analysis":   `{"intent":"Response","confidence":0.5,"status":"cancelled","missing_info":[]}`,
		"ready without type":     `{"intent":"Task","confidence":0.9,"task_type":null,"status":"ready","missing_info":[],"raw_analysis":""}`,
		"collecting no question": `{"intent":"Collecting","confidence":0.9,"task_type":"book_meeting","status":"collecting","missing_info":["date"],"raw_analysis":""}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseIntentResult(raw); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestClassifyCreatesCollectingSession(t *testing.T) {
	llm := &scriptedLLM{classify: []string{"Here you go:\n" + collectingJSON}}
	sessions := newMemSessions()
	c := newTestClassifier(llm, sessions)

	r := c.Classify(context.Background(), entities.ClassifyInput{TenantID: "t1", Counterparty: "alice", Message: "I want to buy 2 blue shirts"})

	if r.Intent != entities.IntentCollecting {
		t.Fatalf("intent = %s", r.Intent)
	}
	s, _ := sessions.GetActiveSession(context.Background(), "t1", "alice")
	if s == nil || s.Status != entities.StatusCollecting || s.TaskType != entities.TaskCreateOrder {
		t.Fatalf("session = %+v", s)
	}
	if len(s.MissingInfo) != 1 || s.MissingInfo[0] != "customer_info" {
		t.Errorf("missing info = %v", s.MissingInfo)
	}
}

func TestClassifyReadyDeletesSession(t *testing.T) {
	llm := &scriptedLLM{classify: []string{readyJSON}}
	sessions := newMemSessions()
	sessions.UpsertSession(context.Background(), &entities.IntentSession{
		TenantID: "t1", Counterparty: "alice", TaskType: entities.TaskCreateOrder, Status: entities.StatusCollecting,
	})
	c := newTestClassifier(llm, sessions)

	r := c.Classify(context.Background(), entities.ClassifyInput{TenantID: "t1", Counterparty: "alice", Message: "Tola, 08030000000"})
	if !r.IsReadyTask() {
		t.Fatalf("result = %+v", r)
	}
	if sessions.count() != 0 {
		t.Error("session should be deleted once the task is ready")
	}
}

const cancelledJSON = `{"intent":"Response","confidence":0.9,"task_type":null,"status":"cancelled",
"missing_info":[],"payload":{},"next_question":null,"email_content":null,"raw_analysis":"customer said never mind"}`

// A collecting label paired with a terminal status.
const collectingCancelledJSON = `{"intent":"Collecting","confidence":0.7,"task_type":"create_order","status":"cancelled",
"missing_info":[],"payload":{},"next_question":"No problem, anything else I can help with?",
"email_content":null,"raw_analysis":"order abandoned"}`

const collectingReadyJSON = `{"intent":"Collecting","confidence":0.7,"task_type":"create_order","status":"ready",
"missing_info":[],"payload":{"items":"2 blue shirts"},"next_question":"Anything else?",
"email_content":null,"raw_analysis":"all fields present"}`

func TestClassifyTerminalStatusClearsSession(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"cancelled", cancelledJSON},
		{"collecting label with cancelled status", collectingCancelledJSON},
		{"collecting label with ready status", collectingReadyJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := newMemSessions()
			sessions.UpsertSession(context.Background(), &entities.IntentSession{
				TenantID: "t1", Counterparty: "alice", TaskType: entities.TaskCreateOrder, Status: entities.StatusCollecting,
				MissingInfo: []string{"customer_info"},
			})
			c := newTestClassifier(&scriptedLLM{classify: []string{tt.response}}, sessions)

			r := c.Classify(context.Background(), entities.ClassifyInput{TenantID: "t1", Counterparty: "alice", Message: "never mind, stop"})
			if r.Status == entities.StatusCollecting {
				t.Fatalf("status = %s", r.Status)
			}
			if sessions.count() != 0 {
				s, _ := sessions.GetActiveSession(context.Background(), "t1", "alice")
				t.Errorf("session should be cleared, still have %+v", s)
			}
		})
	}
}

func TestClassifyPromptIncludesActiveSession(t *testing.T) {
	sessions := newMemSessions()
	sessions.UpsertSession(context.Background(), &entities.IntentSession{
		TenantID: "t1", Counterparty: "alice", TaskType: entities.TaskBookMeeting,
		Status: entities.StatusCollecting, Payload: map[string]any{"date": "Friday"}, MissingInfo: []string{"time"},
	})

	prompt := buildClassificationPrompt(entities.ClassifyInput{Message: "3pm"}, mustSession(t, sessions), nil)
	for _, want := range []string{"task_type: book_meeting", `"date":"Friday"`, "missing_info: time", "(no previous messages)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	empty := buildClassificationPrompt(entities.ClassifyInput{Message: "hi"}, nil, nil)
	if !strings.Contains(empty, "ACTIVE TASK SESSION:\nNone") {
		t.Errorf("prompt without session:\n%s", empty)
	}
}

func mustSession(t *testing.T, s *memSessions) *entities.IntentSession {
	t.Helper()
	session, err := s.GetActiveSession(context.Background(), "t1", "alice")
	if err != nil || session == nil {
		t.Fatalf("no session: %v", err)
	}
	return session
}

func TestClassifyRetriesThenSucceeds(t *testing.T) {
	llm := &scriptedLLM{classify: []string{"I think they want to chat", `{"intent":"Response"}`, collectingJSON}}
	c := newTestClassifier(llm, newMemSessions())

	r := c.Classify(context.Background(), entities.ClassifyInput{TenantID: "t1", Counterparty: "alice", Message: "buy"})
	if r.Intent != entities.IntentCollecting {
		t.Errorf("intent = %s", r.Intent)
	}
	if llm.classifyCalls != 3 {
		t.Errorf("calls = %d, want 3", llm.classifyCalls)
	}
}

func TestClassifyFallbackWhenProvidersFail(t *testing.T) {
	llm := &scriptedLLM{classifyErr: errors.New("all providers failed")}
	sessions := newMemSessions()
	sessions.UpsertSession(context.Background(), &entities.IntentSession{
		TenantID: "t1", Counterparty: "alice", TaskType: entities.TaskSendEmail, Status: entities.StatusCollecting,
	})
	c := newTestClassifier(llm, sessions)

	r := c.Classify(context.Background(), entities.ClassifyInput{TenantID: "t1", Counterparty: "alice", Message: "hello"})

	if llm.classifyCalls > 3 {
		t.Errorf("attempts = %d, want at most 3", llm.classifyCalls)
	}
	if r.Intent != entities.IntentResponse || r.Confidence != 0.1 || r.Status != entities.StatusCancelled {
		t.Errorf("fallback = %+v", r)
	}
	if r.TaskType != nil || r.NextQuestion != nil || len(r.MissingInfo) != 0 {
		t.Errorf("fallback should be empty: %+v", r)
	}
	if sessions.count() != 1 {
		t.Error("fallback must not clear the stored session")
	}
}
