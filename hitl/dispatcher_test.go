package hitl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/flowgate/workflow"
)

func approvalWorkflow(t *testing.T) *workflow.Store {
	t.Helper()
	store := workflow.NewStore()
	require.NoError(t, store.Register(&workflow.Definition{
		ID: "approval",
		Steps: []workflow.Step{
			{ID: "prepare", Type: workflow.StepTypeSystem},
			{ID: "signoff", Type: workflow.StepTypeHuman, DependsOn: []string{"prepare"}, Config: map[string]any{
				"prompt":     "Sign off?",
				"input_type": "approval",
			}},
			{ID: "archive", Type: workflow.StepTypeSystem, DependsOn: []string{"signoff"}},
		},
	}))
	return store
}

func waitForStatus(t *testing.T, engine *workflow.Engine, id string, want workflow.Status) *workflow.State {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if state, ok := engine.GetState(id); ok && state.Status == want {
			return state
		}
		select {
		case <-deadline:
			state, _ := engine.GetState(id)
			t.Fatalf("instance %s never reached %s, state: %+v", id, want, state)
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDispatcher_DrivesWorkflowToCompletion(t *testing.T) {
	engine := workflow.NewEngine(approvalWorkflow(t), zaptest.NewLogger(t))

	gateway := NewScriptedGateway(map[string]any{"signoff": true}, nil)
	dispatcher := NewDispatcher(engine, gateway, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := dispatcher.Start(ctx)

	id, err := engine.Start(ctx, "approval", nil)
	require.NoError(t, err)

	state := waitForStatus(t, engine, id, workflow.StatusCompleted)
	assert.Equal(t, []string{"prepare", "signoff", "archive"}, state.CompletedSteps)

	signoff, ok := state.StepData["signoff"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, signoff[workflow.HumanInputKey])

	// Completion notification reaches the gateway before shutdown.
	deadline := time.After(5 * time.Second)
	for len(gateway.Completed()) == 0 {
		select {
		case <-deadline:
			t.Fatal("gateway never notified of completion")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.Equal(t, []string{id}, gateway.Completed())

	engine.Close()
	<-done
}

func TestDispatcher_ReportsFailure(t *testing.T) {
	store := workflow.NewStore()
	require.NoError(t, store.Register(&workflow.Definition{
		ID:    "broken",
		Steps: []workflow.Step{{ID: "odd", Type: workflow.StepType("bogus")}},
	}))
	engine := workflow.NewEngine(store, zaptest.NewLogger(t))

	gateway := NewScriptedGateway(nil, nil)
	dispatcher := NewDispatcher(engine, gateway, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := dispatcher.Start(ctx)

	id, err := engine.Start(ctx, "broken", nil)
	require.NoError(t, err)
	waitForStatus(t, engine, id, workflow.StatusFailed)

	deadline := time.After(5 * time.Second)
	for {
		if msg, ok := gateway.FailureMessage(id); ok {
			assert.Contains(t, msg, "bogus")
			break
		}
		select {
		case <-deadline:
			t.Fatal("gateway never notified of failure")
		case <-time.After(10 * time.Millisecond):
		}
	}

	engine.Close()
	<-done
}

func TestDispatcher_MultipleHumanSteps(t *testing.T) {
	store := workflow.NewStore()
	require.NoError(t, store.Register(&workflow.Definition{
		ID: "twice",
		Steps: []workflow.Step{
			{ID: "first", Type: workflow.StepTypeHuman},
			{ID: "second", Type: workflow.StepTypeHuman, DependsOn: []string{"first"}},
		},
	}))
	engine := workflow.NewEngine(store, zaptest.NewLogger(t))

	gateway := NewScriptedGateway(map[string]any{"first": "one", "second": "two"}, nil)
	dispatcher := NewDispatcher(engine, gateway, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := dispatcher.Start(ctx)

	id, err := engine.Start(ctx, "twice", nil)
	require.NoError(t, err)

	state := waitForStatus(t, engine, id, workflow.StatusCompleted)
	first := state.StepData["first"].(map[string]any)
	second := state.StepData["second"].(map[string]any)
	assert.Equal(t, "one", first[workflow.HumanInputKey])
	assert.Equal(t, "two", second[workflow.HumanInputKey])

	engine.Close()
	<-done
}
