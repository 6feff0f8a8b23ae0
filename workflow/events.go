package workflow

import (
	"time"

	"github.com/google/uuid"
)

// EventType tags a workflow lifecycle event.
type EventType string

const (
	EventStepStarted        EventType = "step_started"
	EventStepCompleted      EventType = "step_completed"
	EventHumanInputRequired EventType = "human_input_required"
	EventWorkflowCompleted  EventType = "workflow_completed"
	EventWorkflowFailed     EventType = "workflow_failed"
)

// Event is one lifecycle notification. Payload holds one of the typed
// payload structs below, matching Type.
type Event struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// StepStartedPayload accompanies EventStepStarted.
type StepStartedPayload struct {
	StepID   string   `json:"step_id"`
	StepType StepType `json:"step_type"`
}

// StepCompletedPayload accompanies EventStepCompleted.
type StepCompletedPayload struct {
	StepID string         `json:"step_id"`
	Output map[string]any `json:"output,omitempty"`
}

// HumanInputRequiredPayload accompanies EventHumanInputRequired.
type HumanInputRequiredPayload struct {
	Request PendingInput `json:"request"`
}

// WorkflowCompletedPayload accompanies EventWorkflowCompleted and carries
// a snapshot of the final state.
type WorkflowCompletedPayload struct {
	State State `json:"state"`
}

// WorkflowFailedPayload accompanies EventWorkflowFailed.
type WorkflowFailedPayload struct {
	StepID string `json:"step_id"`
	Error  string `json:"error"`
}

func newEvent(instanceID string, eventType EventType, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		InstanceID: instanceID,
		Type:       eventType,
		Timestamp:  time.Now(),
		Payload:    payload,
	}
}
