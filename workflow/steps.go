package workflow

import (
	"context"
	"fmt"

	"github.com/BaSui01/flowgate/types"
)

// StepResult is the outcome of executing one step. Exactly one of the
// following holds: InputRequest is set (the workflow must pause), or the
// step completed with Output.
type StepResult struct {
	Output       map[string]any
	InputRequest *PendingInput
}

// AgentExecutor is the override hook for agent steps. Real agent dispatch
// is a collaborator's responsibility; the default behavior is a trivial
// success.
type AgentExecutor func(ctx context.Context, step Step, state *State) (map[string]any, error)

// executeStep dispatches on the step's type tag. The variant is closed:
// anything outside {agent, human, system} fails with UNKNOWN_STEP_TYPE.
func (e *Engine) executeStep(ctx context.Context, step Step, state *State) (*StepResult, error) {
	switch step.Type {
	case StepTypeHuman:
		return &StepResult{InputRequest: buildInputRequest(step)}, nil

	case StepTypeSystem:
		return &StepResult{Output: map[string]any{
			"acknowledged": true,
			"message":      fmt.Sprintf("step %s executed", step.ID),
		}}, nil

	case StepTypeAgent:
		if e.agentExecutor != nil {
			output, err := e.agentExecutor(ctx, step, state.clone())
			if err != nil {
				return nil, err
			}
			return &StepResult{Output: output}, nil
		}
		return &StepResult{Output: map[string]any{
			"status": "completed",
			"agent":  step.ID,
		}}, nil

	default:
		return nil, types.NewErrorf(types.ErrUnknownStepType, "unknown step type %q", step.Type)
	}
}

// buildInputRequest assembles the human-input request from the step
// configuration. The input kind, choices, and metadata are taken verbatim;
// the prompt defaults to a generated message referencing the step.
func buildInputRequest(step Step) *PendingInput {
	req := &PendingInput{
		StepID: step.ID,
		Prompt: fmt.Sprintf("Input required for step %q", step.ID),
		Kind:   InputKindText,
	}
	if step.Config == nil {
		return req
	}

	if prompt, ok := step.Config["prompt"].(string); ok && prompt != "" {
		req.Prompt = prompt
	}
	if kind, ok := step.Config["input_type"].(string); ok && kind != "" {
		req.Kind = InputKind(kind)
	}
	switch choices := step.Config["choices"].(type) {
	case []string:
		req.Choices = append([]string(nil), choices...)
	case []any:
		for _, c := range choices {
			if s, ok := c.(string); ok {
				req.Choices = append(req.Choices, s)
			}
		}
	}
	if metadata, ok := step.Config["metadata"].(map[string]any); ok {
		req.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			req.Metadata[k] = v
		}
	}
	return req
}
