package usecases

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
)

// scriptedLLM answers classification and composition calls separately.
type scriptedLLM struct {
	mu             sync.Mutex
	classify       []string // served in order; the last one repeats
	classifyErr    error
	compose        string
	composeErr     error
	classifyCalls  int
	composeCalls   int
	composeRequest interfaces.GenerateRequest
}

func (l *scriptedLLM) Generate(ctx context.Context, req interfaces.GenerateRequest) (*entities.Generation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.Contains(req.SystemPrompt, "intent classifier") {
		l.classifyCalls++
		if l.classifyErr != nil {
			return nil, l.classifyErr
		}
		if len(l.classify) == 0 {
			return nil, errors.New("no classification scripted")
		}
		i := min(l.classifyCalls-1, len(l.classify)-1)
		return &entities.Generation{Content: l.classify[i], Provider: "fake"}, nil
	}

	l.composeCalls++
	l.composeRequest = req
	if l.composeErr != nil {
		return nil, l.composeErr
	}
	return &entities.Generation{Content: l.compose, Provider: "fake"}, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeIndex struct {
	matches   []entities.VectorMatch
	namespace string
	docs      map[string][]entities.KnowledgeChunk
}

func (f *fakeIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]entities.VectorMatch, error) {
	f.namespace = namespace
	if len(f.matches) > topK {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

func (f *fakeIndex) ReplaceDocument(ctx context.Context, namespace, documentID string, chunks []entities.KnowledgeChunk) error {
	if f.docs == nil {
		f.docs = map[string][]entities.KnowledgeChunk{}
	}
	f.docs[namespace+"/"+documentID] = chunks
	return nil
}

func (f *fakeIndex) DeleteDocument(ctx context.Context, namespace, documentID string) error {
	delete(f.docs, namespace+"/"+documentID)
	return nil
}

func (f *fakeIndex) PurgeNamespace(ctx context.Context, namespace string) error {
	for k := range f.docs {
		if strings.HasPrefix(k, namespace+"/") {
			delete(f.docs, k)
		}
	}
	return nil
}

type fakeConfigs map[string]*entities.BotConfig

func (f fakeConfigs) GetBotConfig(ctx context.Context, tenantID string) (*entities.BotConfig, error) {
	return f[tenantID], nil
}

type fakeProducts []entities.Product

func (f fakeProducts) ListProducts(ctx context.Context, tenantID string) ([]entities.Product, error) {
	return f, nil
}

// memSessions is an in-memory SessionStore keyed like the real table.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*entities.IntentSession
	upserts  int
	deletes  int
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*entities.IntentSession{}}
}

func (m *memSessions) key(tenantID, counterparty string) string { return tenantID + "|" + counterparty }

func (m *memSessions) GetActiveSession(ctx context.Context, tenantID, counterparty string) (*entities.IntentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[m.key(tenantID, counterparty)]
	if !ok || s.Status != entities.StatusCollecting {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) UpsertSession(ctx context.Context, s *entities.IntentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	cp := *s
	m.sessions[m.key(s.TenantID, s.Counterparty)] = &cp
	return nil
}

func (m *memSessions) DeleteSession(ctx context.Context, tenantID, counterparty string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.sessions, m.key(tenantID, counterparty))
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type memMessages struct {
	mu       sync.Mutex
	messages []entities.Message
	err      error
}

func (m *memMessages) AppendMessage(ctx context.Context, msg *entities.Message) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memMessages) ListRecent(ctx context.Context, tenantID, counterparty string, limit int) ([]entities.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Message
	for _, msg := range m.messages {
		if msg.TenantID == tenantID && msg.Counterparty == counterparty {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeTenants map[string]bool

func (f fakeTenants) TenantExists(ctx context.Context, id string) (bool, error) { return f[id], nil }

type fakeIgnores map[string]bool

func (f fakeIgnores) IsIgnored(ctx context.Context, tenantID, counterparty string) (bool, error) {
	return f[tenantID+"|"+counterparty], nil
}

type sentMessage struct{ tenantID, to, content string }

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, tenantID, to, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{tenantID, to, content})
	return f.err
}

type recordingDispatcher struct {
	tasks []entities.Task
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, task entities.Task) entities.DispatchOutcome {
	r.tasks = append(r.tasks, task)
	return entities.DispatchOutcome{TaskType: task.TaskType}
}

// countingClassifier wraps a classifier to observe whether it ran.
type countingClassifier struct {
	inner interfaces.Classifier
	calls int
}

func (c *countingClassifier) Classify(ctx context.Context, in entities.ClassifyInput) *entities.IntentResult {
	c.calls++
	return c.inner.Classify(ctx, in)
}
