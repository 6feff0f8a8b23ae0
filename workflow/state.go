package workflow

import "time"

// Status is the lifecycle state of a workflow instance. Transitions are
// monotonic except for the paused/running cycle:
// pending -> running -> {paused <-> running}* -> {completed | failed}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// InputKind classifies what a human step is asking for.
type InputKind string

const (
	InputKindText     InputKind = "text"
	InputKindChoice   InputKind = "choice"
	InputKindApproval InputKind = "approval"
	InputKindCustom   InputKind = "custom"
)

// PendingInput describes the one outstanding human-input request of a
// paused instance. It exists exactly while the instance is paused.
type PendingInput struct {
	StepID   string         `json:"step_id"`
	Prompt   string         `json:"prompt"`
	Kind     InputKind      `json:"kind"`
	Choices  []string       `json:"choices,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// State is the mutable record of one workflow instance. It is mutated
// exclusively by the Engine; callers only ever see deep copies.
type State struct {
	ID             string         `json:"id"`
	DefinitionID   string         `json:"definition_id"`
	CurrentStepID  string         `json:"current_step_id,omitempty"`
	CompletedSteps []string       `json:"completed_steps"`
	StepData       map[string]any `json:"step_data"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// completed reports membership in CompletedSteps.
func (s *State) completed(stepID string) bool {
	for _, id := range s.CompletedSteps {
		if id == stepID {
			return true
		}
	}
	return false
}

func (s *State) clone() *State {
	out := *s
	out.CompletedSteps = append([]string(nil), s.CompletedSteps...)
	out.StepData = cloneData(s.StepData)
	return &out
}

func (p *PendingInput) clone() *PendingInput {
	if p == nil {
		return nil
	}
	out := *p
	out.Choices = append([]string(nil), p.Choices...)
	if p.Metadata != nil {
		out.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// cloneData deep-copies nested map values; non-map values are shared,
// which is safe because step outputs are treated as immutable once stored.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneData(nested)
			continue
		}
		out[k] = v
	}
	return out
}
