package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/flowgate/types"
)

func stepTestEngine(opts ...Option) *Engine {
	return NewEngine(NewStore(), nil, opts...)
}

func TestExecuteStep_SystemStep(t *testing.T) {
	engine := stepTestEngine()
	defer engine.Close()

	result, err := engine.executeStep(context.Background(), Step{ID: "notify", Type: StepTypeSystem}, &State{})
	require.NoError(t, err)
	require.Nil(t, result.InputRequest)
	assert.Equal(t, true, result.Output["acknowledged"])
	assert.Contains(t, result.Output["message"], "notify")
}

func TestExecuteStep_HumanStepRequestsInput(t *testing.T) {
	engine := stepTestEngine()
	defer engine.Close()

	result, err := engine.executeStep(context.Background(), Step{ID: "ask", Type: StepTypeHuman}, &State{})
	require.NoError(t, err)
	require.NotNil(t, result.InputRequest)
	assert.Nil(t, result.Output)
	assert.Equal(t, "ask", result.InputRequest.StepID)
}

func TestExecuteStep_AgentDefault(t *testing.T) {
	engine := stepTestEngine()
	defer engine.Close()

	result, err := engine.executeStep(context.Background(), Step{ID: "writer", Type: StepTypeAgent}, &State{})
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Output["status"])
	assert.Equal(t, "writer", result.Output["agent"])
}

func TestExecuteStep_AgentExecutorOverride(t *testing.T) {
	engine := stepTestEngine(WithAgentExecutor(
		func(ctx context.Context, step Step, state *State) (map[string]any, error) {
			return map[string]any{"response": "drafted"}, nil
		},
	))
	defer engine.Close()

	result, err := engine.executeStep(context.Background(), Step{ID: "writer", Type: StepTypeAgent}, &State{})
	require.NoError(t, err)
	assert.Equal(t, "drafted", result.Output["response"])
}

func TestExecuteStep_AgentExecutorSeesStateCopy(t *testing.T) {
	engine := stepTestEngine(WithAgentExecutor(
		func(ctx context.Context, step Step, state *State) (map[string]any, error) {
			state.StepData["stolen"] = true
			return nil, nil
		},
	))
	defer engine.Close()

	state := &State{StepData: map[string]any{}}
	_, err := engine.executeStep(context.Background(), Step{ID: "w", Type: StepTypeAgent}, state)
	require.NoError(t, err)
	assert.NotContains(t, state.StepData, "stolen")
}

func TestExecuteStep_UnknownType(t *testing.T) {
	engine := stepTestEngine()
	defer engine.Close()

	_, err := engine.executeStep(context.Background(), Step{ID: "x", Type: StepType("warp")}, &State{})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUnknownStepType))
}

func TestBuildInputRequest_Defaults(t *testing.T) {
	req := buildInputRequest(Step{ID: "approve", Type: StepTypeHuman})
	assert.Equal(t, "approve", req.StepID)
	assert.Equal(t, `Input required for step "approve"`, req.Prompt)
	assert.Equal(t, InputKindText, req.Kind)
	assert.Empty(t, req.Choices)
	assert.Nil(t, req.Metadata)
}

func TestBuildInputRequest_FromConfig(t *testing.T) {
	req := buildInputRequest(Step{
		ID:   "pick",
		Type: StepTypeHuman,
		Config: map[string]any{
			"prompt":     "Pick a variant",
			"input_type": "choice",
			"choices":    []string{"a", "b"},
			"metadata":   map[string]any{"severity": "low"},
		},
	})
	assert.Equal(t, "Pick a variant", req.Prompt)
	assert.Equal(t, InputKindChoice, req.Kind)
	assert.Equal(t, []string{"a", "b"}, req.Choices)
	assert.Equal(t, "low", req.Metadata["severity"])
}

func TestBuildInputRequest_ChoicesFromYAML(t *testing.T) {
	// YAML unmarshals sequences as []any; non-strings are skipped.
	req := buildInputRequest(Step{
		ID:   "pick",
		Type: StepTypeHuman,
		Config: map[string]any{
			"choices": []any{"yes", "no", 3},
		},
	})
	assert.Equal(t, []string{"yes", "no"}, req.Choices)
}
