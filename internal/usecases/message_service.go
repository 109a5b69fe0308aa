package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/infrastructure"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
	"github.com/ObisDevs/Salesboy-sub000/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrUnknownTenant is returned when the webhook names a tenant that does not exist.
var ErrUnknownTenant = errors.New("unknown tenant")

const apologyReply = "Sorry, I'm having a little trouble right now. Please try again in a moment."

const (
	resultProcessed = "processed"
	resultFiltered  = "filtered"
)

// ConversationOptions sizes the context handed to the classifier and composer.
type ConversationOptions struct {
	HistoryWindow      int
	HistoryMemory      int
	NewConversationGap time.Duration
	TopK               int
	LockWait           time.Duration // bound on waiting for the pair lock
}

// Dependencies groups every collaborator of MessageService.
type Dependencies struct {
	Tenants    interfaces.TenantStore
	Ignores    interfaces.IgnoreStore
	Messages   interfaces.MessageStore
	Configs    interfaces.ConfigStore
	Classifier interfaces.Classifier
	Retriever  interfaces.Retriever
	Composer   interfaces.Composer
	Dispatcher interfaces.TaskDispatcher
	Messenger  interfaces.Messenger
	Locker     interfaces.PairLocker
	Catalog    *TaskCatalog
}

// MessageService runs one inbound WhatsApp message through the pipeline:
// filter, classify, then dispatch, ask, or answer, and reply.
type MessageService struct {
	deps   Dependencies
	opts   ConversationOptions
	now    func() time.Time
	logger zerolog.Logger
}

func NewMessageService(deps Dependencies, opts ConversationOptions, logger zerolog.Logger) *MessageService {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 10
	}
	if opts.HistoryMemory < opts.HistoryWindow {
		opts.HistoryMemory = opts.HistoryWindow
	}
	if opts.NewConversationGap <= 0 {
		opts.NewConversationGap = 6 * time.Hour
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 15 * time.Second
	}
	if deps.Catalog == nil {
		deps.Catalog = DefaultTaskCatalog()
	}
	if deps.Locker == nil {
		deps.Locker = infrastructure.NoopPairLocker{}
	}
	return &MessageService{
		deps:   deps,
		opts:   opts,
		now:    time.Now,
		logger: logger.With().Str("component", "orchestrator").Logger(),
	}
}

// IsSystemAddress reports senders that are never answered: channels,
// broadcast lists and status updates.
func IsSystemAddress(from string) bool {
	return strings.Contains(from, "@newsletter") ||
		strings.Contains(from, "@broadcast") ||
		strings.HasPrefix(from, "status@")
}

// ProcessMessage handles one inbound message. Only ErrUnknownTenant is
// returned; every other failure degrades into an apology reply.
func (s *MessageService) ProcessMessage(ctx context.Context, in entities.InboundMessage) (*entities.ProcessResult, error) {
	log := s.logger.With().Str("tenant_id", in.TenantID).Str("counterparty", in.From).Logger()

	if IsSystemAddress(in.From) {
		metrics.InboundMessages.WithLabelValues("system").Inc()
		return &entities.ProcessResult{Message: resultFiltered, Filtered: "system address"}, nil
	}

	exists, err := s.deps.Tenants.TenantExists(ctx, in.TenantID)
	if err != nil {
		log.Error().Err(err).Msg("tenant lookup failed, continuing")
	} else if !exists {
		metrics.InboundMessages.WithLabelValues("unknown_tenant").Inc()
		return nil, ErrUnknownTenant
	}

	ignored, err := s.deps.Ignores.IsIgnored(ctx, in.TenantID, in.From)
	if err != nil {
		log.Warn().Err(err).Msg("ignore list unavailable, continuing")
	}
	if ignored {
		metrics.InboundMessages.WithLabelValues("ignored").Inc()
		return &entities.ProcessResult{Message: resultFiltered, Filtered: "ignore list"}, nil
	}

	history, err := s.deps.Messages.ListRecent(ctx, in.TenantID, in.From, s.opts.HistoryMemory)
	if err != nil {
		log.Warn().Err(err).Msg("could not load history")
		history = nil
	}
	isNew := len(history) == 0 || s.now().Sub(history[len(history)-1].CreatedAt) > s.opts.NewConversationGap
	recentContext := RenderConversation(history[max(0, len(history)-s.opts.HistoryWindow):])
	fullHistory := RenderConversation(history)

	s.logMessage(ctx, log, &entities.Message{
		TenantID:     in.TenantID,
		Counterparty: in.From,
		Body:         in.Body,
		Direction:    entities.DirectionIncoming,
	})

	// The wait gets its own deadline so a timeout leaves ctx usable for the rest.
	lockCtx, cancelLock := context.WithTimeout(ctx, s.opts.LockWait)
	unlock, err := s.deps.Locker.Lock(lockCtx, in.TenantID, in.From)
	cancelLock()
	if err != nil {
		log.Warn().Err(err).Msg("session lock unavailable, continuing unlocked")
		unlock = func() {}
	}
	defer unlock()

	intent := s.deps.Classifier.Classify(ctx, entities.ClassifyInput{
		TenantID:     in.TenantID,
		Counterparty: in.From,
		Message:      in.Body,
		Context:      recentContext,
	})

	var reply string
	switch {
	case intent.IsReadyTask():
		s.deps.Dispatcher.Dispatch(ctx, entities.Task{
			TaskType:            *intent.TaskType,
			Payload:             intent.Payload,
			UserID:              in.TenantID,
			Counterparty:        in.From,
			OriginalMessage:     in.Body,
			ConversationContext: recentContext,
		})
		reply = s.deps.Catalog.Acknowledgment(*intent.TaskType)

	case intent.IsCollecting() && intent.NextQuestion != nil:
		reply = *intent.NextQuestion

	default:
		reply = s.respond(ctx, log, in, recentContext, fullHistory, isNew)
	}

	if err := s.deps.Messenger.SendMessage(ctx, in.TenantID, in.From, reply); err != nil {
		log.Error().Err(err).Msg("failed to send reply")
	}

	var taskType any
	if intent.TaskType != nil {
		taskType = string(*intent.TaskType)
	}
	s.logMessage(ctx, log, &entities.Message{
		TenantID:     in.TenantID,
		Counterparty: in.From,
		Body:         reply,
		Direction:    entities.DirectionOutgoing,
		Metadata:     map[string]any{"intent": string(intent.Intent), "task_type": taskType},
	})

	metrics.InboundMessages.WithLabelValues("processed").Inc()
	return &entities.ProcessResult{
		Message:  resultProcessed,
		Intent:   intent.Intent,
		TaskType: intent.TaskType,
		Response: reply,
	}, nil
}

func (s *MessageService) respond(ctx context.Context, log zerolog.Logger, in entities.InboundMessage, recent, full string, isNew bool) string {
	retrieval, err := s.deps.Retriever.Retrieve(ctx, in.TenantID, in.Body, s.opts.TopK)
	if err != nil {
		log.Error().Err(err).Msg("retrieval failed")
		return apologyReply
	}

	cfg, err := s.deps.Configs.GetBotConfig(ctx, in.TenantID)
	if err != nil {
		log.Warn().Err(err).Msg("bot config unavailable, using defaults")
		cfg = nil
	}
	var maxTokens int
	if cfg != nil {
		maxTokens = cfg.MaxTokens
	}

	reply, err := s.deps.Composer.Compose(ctx, entities.ComposeInput{
		TenantID:          in.TenantID,
		Message:           in.Body,
		Retrieval:         retrieval,
		Temperature:       cfg.EffectiveTemperature(),
		MaxTokens:         maxTokens,
		RecentContext:     recent,
		IsNewConversation: isNew,
		FullHistory:       full,
	})
	if err != nil || strings.TrimSpace(reply) == "" {
		log.Error().Err(err).Msg("response composition failed")
		return apologyReply
	}
	return reply
}

func (s *MessageService) logMessage(ctx context.Context, log zerolog.Logger, msg *entities.Message) {
	if err := s.deps.Messages.AppendMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("direction", string(msg.Direction)).Msg("failed to log message")
	}
}

// RenderConversation formats messages oldest first as Customer:/Assistant: lines.
func RenderConversation(messages []entities.Message) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if m.Direction == entities.DirectionOutgoing {
			sb.WriteString("Assistant: ")
		} else {
			sb.WriteString("Customer: ")
		}
		sb.WriteString(m.Body)
	}
	return sb.String()
}
