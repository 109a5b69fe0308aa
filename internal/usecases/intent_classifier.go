package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/ObisDevs/Salesboy-sub000/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	classifierAttempts    = 3
	classifierTemperature = 0.2
)

const classifierInstructionHead = `You are the intent classifier of a WhatsApp sales assistant. Decide what the customer wants
from their current message, the conversation so far and any active task session.

Intents:
- Response: a question or chat the assistant should simply answer.
- Collecting: the customer wants a task done but required fields are still missing. Ask for them in next_question.
- Task: every required field of the task is known. Set status to "ready".

If the customer says stop, cancel, never mind or similar during an active task, set status to "cancelled".
Keep values already collected in the active session inside payload. Do not invent values the customer never gave.

Task types and their fields:
`

const classifierInstructionSchema = `
Reply with one JSON object and nothing else, using exactly these fields:
{
  "intent": "Response" | "Task" | "Collecting",
  "confidence": number between 0 and 1,
  "task_type": "send_email" | "book_meeting" | "place_order" | "create_order" | "human_handoff" | null,
  "status": "ready" | "collecting" | "cancelled",
  "missing_info": [string],
  "payload": object | null,
  "next_question": string | null,
  "email_content": string | null,
  "raw_analysis": string
}`

var (
	errNoJSONObject = errors.New("no JSON object in model output")
	errMissingField = errors.New("missing required field")
	errInvalidValue = errors.New("invalid field value")
)

// IntentClassifier decides, per (tenant, counterparty), whether a message is
// plain chat, part of a task being collected, or a completed task.
type IntentClassifier struct {
	llm         interfaces.AIClient
	sessions    interfaces.SessionStore
	configs     interfaces.ConfigStore
	catalog     *TaskCatalog
	instruction string
	logger      zerolog.Logger
}

func NewIntentClassifier(llm interfaces.AIClient, sessions interfaces.SessionStore, configs interfaces.ConfigStore, catalog *TaskCatalog, logger zerolog.Logger) *IntentClassifier {
	return &IntentClassifier{
		llm:         llm,
		sessions:    sessions,
		configs:     configs,
		catalog:     catalog,
		instruction: classifierInstructionHead + catalog.Describe() + classifierInstructionSchema,
		logger:      logger.With().Str("component", "intent_classifier").Logger(),
	}
}

// Classify never fails. When no attempt yields a valid decision it returns
// FallbackIntent and leaves stored session state alone.
func (c *IntentClassifier) Classify(ctx context.Context, in entities.ClassifyInput) *entities.IntentResult {
	log := c.logger.With().Str("tenant_id", in.TenantID).Str("counterparty", in.Counterparty).Logger()

	session, err := c.sessions.GetActiveSession(ctx, in.TenantID, in.Counterparty)
	if err != nil {
		log.Warn().Err(err).Msg("could not load intent session, classifying without it")
		session = nil
	}
	cfg, err := c.configs.GetBotConfig(ctx, in.TenantID)
	if err != nil {
		log.Warn().Err(err).Msg("could not load business identity")
		cfg = nil
	}

	prompt := buildClassificationPrompt(in, session, cfg)

	for attempt := 1; attempt <= classifierAttempts; attempt++ {
		result, err := c.attempt(ctx, prompt)
		if err != nil {
			metrics.ClassifierAttempts.WithLabelValues("invalid").Inc()
			log.Warn().Err(err).Int("attempt", attempt).Msg("classification attempt failed")
			continue
		}
		metrics.ClassifierAttempts.WithLabelValues("ok").Inc()
		metrics.IntentsClassified.WithLabelValues(string(result.Intent), string(result.Status)).Inc()

		c.persist(ctx, in, session, result, log)
		return result
	}

	metrics.ClassifierAttempts.WithLabelValues("fallback").Inc()
	log.Error().Msg("classification failed, using fallback")
	return entities.FallbackIntent()
}

func (c *IntentClassifier) attempt(ctx context.Context, prompt string) (*entities.IntentResult, error) {
	gen, err := c.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: c.instruction,
		Temperature:  interfaces.Temperature(classifierTemperature),
	})
	if err != nil {
		return nil, err
	}
	raw, ok := ExtractJSONObject(gen.Content)
	if !ok {
		return nil, errNoJSONObject
	}
	return ParseIntentResult(raw)
}

func (c *IntentClassifier) persist(ctx context.Context, in entities.ClassifyInput, existing *entities.IntentSession, result *entities.IntentResult, log zerolog.Logger) {
	// Status decides the session's fate; a terminal status wins over the intent label.
	switch {
	case result.Status == entities.StatusReady || result.Status == entities.StatusCancelled:
		if err := c.sessions.DeleteSession(ctx, in.TenantID, in.Counterparty); err != nil {
			log.Error().Err(err).Msg("failed to clear intent session")
		}

	case result.Status == entities.StatusCollecting && result.IsCollecting():
		s := &entities.IntentSession{
			TenantID:     in.TenantID,
			Counterparty: in.Counterparty,
			Status:       entities.StatusCollecting,
			Payload:      result.Payload,
			MissingInfo:  result.MissingInfo,
		}
		if result.TaskType != nil {
			s.TaskType = *result.TaskType
		} else if existing != nil {
			s.TaskType = existing.TaskType
		}
		if s.Payload == nil && existing != nil {
			s.Payload = existing.Payload
		}
		if err := c.sessions.UpsertSession(ctx, s); err != nil {
			log.Error().Err(err).Msg("failed to save intent session")
		}
	}
}

func buildClassificationPrompt(in entities.ClassifyInput, session *entities.IntentSession, cfg *entities.BotConfig) string {
	var sb strings.Builder

	sb.WriteString("CONVERSATION SO FAR:\n")
	if strings.TrimSpace(in.Context) == "" {
		sb.WriteString("(no previous messages)")
	} else {
		sb.WriteString(in.Context)
	}

	sb.WriteString("\n\nCURRENT MESSAGE:\n")
	sb.WriteString(in.Message)

	sb.WriteString("\n\nACTIVE TASK SESSION:\n")
	if session == nil {
		sb.WriteString("None")
	} else {
		payload, _ := json.Marshal(session.Payload)
		fmt.Fprintf(&sb, "task_type: %s\nstatus: %s\npayload: %s\nmissing_info: %s",
			session.TaskType, session.Status, payload, strings.Join(session.MissingInfo, ", "))
	}

	sb.WriteString("\n\nBUSINESS CONTEXT:\n")
	if cfg == nil || (cfg.BusinessName == "" && cfg.BusinessEmail == "") {
		sb.WriteString("Not provided")
	} else {
		fmt.Fprintf(&sb, "Name: %s\nEmail: %s", cfg.BusinessName, cfg.BusinessEmail)
	}
	return sb.String()
}

// ExtractJSONObject returns the first balanced {...} block in s, skipping
// braces inside JSON strings.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

type rawIntentResult struct {
	Intent       *string        `json:"intent"`
	Confidence   *float64       `json:"confidence"`
	TaskType     *string        `json:"task_type"`
	Status       *string        `json:"status"`
	MissingInfo  *[]string      `json:"missing_info"`
	Payload      map[string]any `json:"payload"`
	NextQuestion *string        `json:"next_question"`
	EmailContent *string        `json:"email_content"`
	RawAnalysis  *string        `json:"raw_analysis"`
}

// ParseIntentResult validates the shape of a model decision. Field values are
// trusted once the shape is right.
func ParseIntentResult(raw string) (*entities.IntentResult, error) {
	var r rawIntentResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}

	switch {
	case r.Intent == nil:
		return nil, fmt.Errorf("%w: intent", errMissingField)
	case r.Confidence == nil:
		return nil, fmt.Errorf("%w: confidence", errMissingField)
	case r.Status == nil:
		return nil, fmt.Errorf("%w: status", errMissingField)
	case r.MissingInfo == nil:
		return nil, fmt.Errorf("%w: missing_info", errMissingField)
	case r.RawAnalysis == nil:
		return nil, fmt.Errorf("%w: raw_analysis", errMissingField)
	}

	result := &entities.IntentResult{
		Intent:       entities.IntentKind(*r.Intent),
		Confidence:   *r.Confidence,
		Status:       entities.TaskStatus(*r.Status),
		MissingInfo:  *r.MissingInfo,
		Payload:      r.Payload,
		NextQuestion: r.NextQuestion,
		EmailContent: r.EmailContent,
		RawAnalysis:  *r.RawAnalysis,
	}

	switch result.Intent {
	case entities.IntentResponse, entities.IntentTask, entities.IntentCollecting:
	default:
		return nil, fmt.Errorf("%w: intent %q", errInvalidValue, *r.Intent)
	}
	switch result.Status {
	case entities.StatusReady, entities.StatusCollecting, entities.StatusCancelled:
	default:
		return nil, fmt.Errorf("%w: status %q", errInvalidValue, *r.Status)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v", errInvalidValue, result.Confidence)
	}
	if r.TaskType != nil && *r.TaskType != "" {
		tt := entities.TaskType(*r.TaskType)
		if !tt.Valid() {
			return nil, fmt.Errorf("%w: task_type %q", errInvalidValue, *r.TaskType)
		}
		result.TaskType = &tt
	}
	if result.MissingInfo == nil {
		result.MissingInfo = []string{}
	}

	// The orchestrator acts on these two shapes directly.
	if result.Intent == entities.IntentTask && result.Status == entities.StatusReady && result.TaskType == nil {
		return nil, fmt.Errorf("%w: ready task without task_type", errInvalidValue)
	}
	if result.IsCollecting() && (result.NextQuestion == nil || strings.TrimSpace(*result.NextQuestion) == "") {
		return nil, fmt.Errorf("%w: collecting without next_question", errInvalidValue)
	}

	return result, nil
}
