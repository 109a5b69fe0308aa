package entities

import "time"

type IntentKind string

const (
	IntentResponse   IntentKind = "Response"
	IntentTask       IntentKind = "Task"
	IntentCollecting IntentKind = "Collecting"
)

type TaskType string

const (
	TaskSendEmail    TaskType = "send_email"
	TaskBookMeeting  TaskType = "book_meeting"
	TaskPlaceOrder   TaskType = "place_order"
	TaskCreateOrder  TaskType = "create_order"
	TaskHumanHandoff TaskType = "human_handoff"
)

// TaskTypes lists every task type the classifier may emit, in catalog order.
var TaskTypes = []TaskType{TaskSendEmail, TaskBookMeeting, TaskPlaceOrder, TaskCreateOrder, TaskHumanHandoff}

func (t TaskType) Valid() bool {
	for _, known := range TaskTypes {
		if t == known {
			return true
		}
	}
	return false
}

type TaskStatus string

const (
	StatusReady      TaskStatus = "ready"
	StatusCollecting TaskStatus = "collecting"
	StatusCancelled  TaskStatus = "cancelled"
)

// IntentResult is the validated classification decision for one inbound message.
type IntentResult struct {
	Intent       IntentKind     `json:"intent"`
	Confidence   float64        `json:"confidence"`
	TaskType     *TaskType      `json:"task_type"`
	Status       TaskStatus     `json:"status"`
	MissingInfo  []string       `json:"missing_info"`
	Payload      map[string]any `json:"payload"`
	NextQuestion *string        `json:"next_question"`
	EmailContent *string        `json:"email_content"`
	RawAnalysis  string         `json:"raw_analysis"`
}

// FallbackIntent is returned when the model never produced a valid decision.
func FallbackIntent() *IntentResult {
	return &IntentResult{
		Intent:      IntentResponse,
		Confidence:  0.1,
		Status:      StatusCancelled,
		MissingInfo: []string{},
	}
}

func (r *IntentResult) IsReadyTask() bool {
	return r.Intent == IntentTask && r.Status == StatusReady && r.TaskType != nil
}

func (r *IntentResult) IsCollecting() bool {
	return r.Intent == IntentCollecting || (r.Intent == IntentTask && r.Status == StatusCollecting)
}

// IntentSession is the in-progress state of a multi-turn task for one
// (tenant, counterparty) pair. At most one exists per pair.
type IntentSession struct {
	TenantID     string         `json:"tenant_id"`
	Counterparty string         `json:"counterparty"`
	TaskType     TaskType       `json:"task_type"`
	Status       TaskStatus     `json:"status"`
	Payload      map[string]any `json:"payload"`
	MissingInfo  []string       `json:"missing_info"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Task is a completed task handed to the dispatcher.
type Task struct {
	TaskType            TaskType
	Payload             map[string]any
	UserID              string
	Counterparty        string
	OriginalMessage     string
	ConversationContext string
}

type DispatchTarget string

const (
	TargetAutomation DispatchTarget = "automation"
	TargetCallback   DispatchTarget = "callback"
)

type DispatchAttempt struct {
	Target     DispatchTarget `json:"target"`
	URL        string         `json:"url"`
	StatusCode int            `json:"status_code,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// DispatchOutcome records what was attempted. A task counts as dispatched once attempted.
type DispatchOutcome struct {
	DeliveryID string            `json:"delivery_id"`
	TaskType   TaskType          `json:"task_type"`
	Attempts   []DispatchAttempt `json:"attempts"`
}

// ClassifyInput carries one turn to the intent classifier.
type ClassifyInput struct {
	TenantID     string
	Counterparty string
	Message      string
	Context      string // rendered window, oldest first, "Customer:"/"Assistant:" prefixed
}
