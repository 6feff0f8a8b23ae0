package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/flowgate/internal/pubsub"
	"github.com/BaSui01/flowgate/types"
)

// HumanInputKey is the reserved sub-key under which a human answer is
// merged into the step's stored data, kept distinct from the step's own
// output so the two never collide.
const HumanInputKey = "humanInput"

// Engine drives workflow instances through their steps, pausing for human
// input and resuming when an answer arrives. One instance is driven by at
// most one continuation at a time; a per-instance mutex serializes Start
// and ProvideHumanInput for the same id.
type Engine struct {
	store  *Store
	broker *pubsub.Broker[Event]
	logger *zap.Logger

	agentExecutor AgentExecutor

	mu        sync.RWMutex
	instances map[string]*instance
}

type instance struct {
	mu      sync.Mutex // serializes continuations for this instance
	state   *State
	pending *PendingInput
	def     *Definition
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	agentExecutor AgentExecutor
	eventBuffer   int
}

// WithAgentExecutor injects the override for agent steps.
func WithAgentExecutor(exec AgentExecutor) Option {
	return func(o *engineOptions) { o.agentExecutor = exec }
}

// WithEventBuffer sets the per-subscriber event channel buffer.
func WithEventBuffer(size int) Option {
	return func(o *engineOptions) { o.eventBuffer = size }
}

// NewEngine creates an Engine over the given definition store.
func NewEngine(store *Store, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	broker := pubsub.NewBroker[Event]()
	if o.eventBuffer > 0 {
		broker = pubsub.NewBrokerWithBuffer[Event](o.eventBuffer)
	}
	return &Engine{
		store:         store,
		broker:        broker,
		logger:        logger.With(zap.String("component", "workflow_engine")),
		agentExecutor: o.agentExecutor,
		instances:     make(map[string]*instance),
	}
}

// Subscribe returns a channel of lifecycle events. The channel closes when
// ctx is cancelled.
func (e *Engine) Subscribe(ctx context.Context) <-chan Event {
	return e.broker.Subscribe(ctx)
}

// Close shuts down the event broker.
func (e *Engine) Close() {
	e.broker.Close()
}

// Start creates a new instance of the named definition, seeds its step
// data from initialData, and drives execution until the instance reaches
// a stable state (paused, completed, or failed). The instance id is
// returned in every case except an unknown definition id, which fails
// with NOT_FOUND. Step failures surface as a failed instance status and a
// workflow_failed event, never as an error from Start.
func (e *Engine) Start(ctx context.Context, definitionID string, initialData map[string]any) (string, error) {
	def, ok := e.store.Get(definitionID)
	if !ok {
		return "", types.NewErrorf(types.ErrNotFound, "workflow definition %q not found", definitionID)
	}

	now := time.Now()
	inst := &instance{
		def: def,
		state: &State{
			ID:             uuid.NewString(),
			DefinitionID:   definitionID,
			CompletedSteps: []string{},
			StepData:       cloneData(initialData),
			Status:         StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
	if inst.state.StepData == nil {
		inst.state.StepData = make(map[string]any)
	}

	e.mu.Lock()
	e.instances[inst.state.ID] = inst
	e.mu.Unlock()

	e.logger.Info("workflow started",
		zap.String("instance_id", inst.state.ID),
		zap.String("definition_id", definitionID),
	)

	inst.mu.Lock()
	defer inst.mu.Unlock()
	e.run(ctx, inst)
	return inst.state.ID, nil
}

// ProvideHumanInput answers the pending input request of a paused
// instance: the answer is merged under the reserved sub-key next to any
// prior data for that step, the step is marked completed, and execution
// resumes. It fails with INVALID_STATE when the instance does not exist,
// is not paused, or has no pending input.
func (e *Engine) ProvideHumanInput(ctx context.Context, instanceID string, answer any) error {
	e.mu.RLock()
	inst, ok := e.instances[instanceID]
	e.mu.RUnlock()
	if !ok {
		return types.NewErrorf(types.ErrInvalidState, "workflow instance %q not found", instanceID)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.state.Status != StatusPaused || inst.pending == nil {
		return types.NewErrorf(types.ErrInvalidState,
			"instance %q has no pending input (status %s)", instanceID, inst.state.Status)
	}

	stepID := inst.pending.StepID
	mergeHumanAnswer(inst.state, stepID, answer)
	inst.state.CompletedSteps = append(inst.state.CompletedSteps, stepID)
	inst.pending = nil
	inst.state.Status = StatusRunning
	inst.state.UpdatedAt = time.Now()

	e.publish(newEvent(instanceID, EventStepCompleted, StepCompletedPayload{
		StepID: stepID,
		Output: map[string]any{HumanInputKey: answer},
	}))

	e.logger.Info("human input received",
		zap.String("instance_id", instanceID),
		zap.String("step_id", stepID),
	)

	e.run(ctx, inst)
	return nil
}

// GetState returns a snapshot of the instance state. Lookups never fail;
// the second return is false for unknown ids.
func (e *Engine) GetState(instanceID string) (*State, bool) {
	e.mu.RLock()
	inst, ok := e.instances[instanceID]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.state.clone(), true
}

// GetPendingInput returns a copy of the instance's pending input request,
// if any.
func (e *Engine) GetPendingInput(instanceID string) (*PendingInput, bool) {
	e.mu.RLock()
	inst, ok := e.instances[instanceID]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.pending == nil {
		return nil, false
	}
	return inst.pending.clone(), true
}

// run drives the instance until it pauses, completes, or fails. An
// explicit loop keeps the call stack flat regardless of step count.
// Callers hold inst.mu.
func (e *Engine) run(ctx context.Context, inst *instance) {
	for {
		step := findNextStep(inst.def, inst.state)
		if step == nil {
			inst.state.Status = StatusCompleted
			inst.state.CurrentStepID = ""
			inst.state.UpdatedAt = time.Now()
			e.publish(newEvent(inst.state.ID, EventWorkflowCompleted, WorkflowCompletedPayload{
				State: *inst.state.clone(),
			}))
			e.logger.Info("workflow completed", zap.String("instance_id", inst.state.ID))
			return
		}

		inst.state.CurrentStepID = step.ID
		inst.state.Status = StatusRunning
		inst.state.UpdatedAt = time.Now()
		e.publish(newEvent(inst.state.ID, EventStepStarted, StepStartedPayload{
			StepID:   step.ID,
			StepType: step.Type,
		}))

		result, err := e.executeStep(ctx, *step, inst.state)
		if err != nil {
			inst.state.Status = StatusFailed
			inst.state.UpdatedAt = time.Now()
			e.publish(newEvent(inst.state.ID, EventWorkflowFailed, WorkflowFailedPayload{
				StepID: step.ID,
				Error:  err.Error(),
			}))
			e.logger.Warn("workflow failed",
				zap.String("instance_id", inst.state.ID),
				zap.String("step_id", step.ID),
				zap.Error(err),
			)
			return
		}

		if result.InputRequest != nil {
			inst.state.Status = StatusPaused
			inst.pending = result.InputRequest
			inst.state.UpdatedAt = time.Now()
			e.publish(newEvent(inst.state.ID, EventHumanInputRequired, HumanInputRequiredPayload{
				Request: *result.InputRequest.clone(),
			}))
			return
		}

		inst.state.CompletedSteps = append(inst.state.CompletedSteps, step.ID)
		mergeStepOutput(inst.state, step.ID, result.Output)
		inst.state.UpdatedAt = time.Now()
		e.publish(newEvent(inst.state.ID, EventStepCompleted, StepCompletedPayload{
			StepID: step.ID,
			Output: result.Output,
		}))
	}
}

// findNextStep scans the definition's steps in declared order and selects
// the first not-yet-completed step whose every dependency is completed.
// nil means the workflow is done. This is deliberately a greedy
// single-step scheduler: independent branches still execute in
// declaration order.
func findNextStep(def *Definition, state *State) *Step {
	for i := range def.Steps {
		step := &def.Steps[i]
		if state.completed(step.ID) {
			continue
		}
		eligible := true
		for _, dep := range step.DependsOn {
			if !state.completed(dep) {
				eligible = false
				break
			}
		}
		if eligible {
			return step
		}
	}
	return nil
}

// mergeStepOutput stores a step's produced data under its id, layering on
// top of any existing map data for that id.
func mergeStepOutput(state *State, stepID string, output map[string]any) {
	if len(output) == 0 {
		return
	}
	existing, ok := state.StepData[stepID].(map[string]any)
	if !ok {
		if prior, present := state.StepData[stepID]; present {
			existing = map[string]any{"value": prior}
		} else {
			existing = make(map[string]any, len(output))
		}
	}
	for k, v := range output {
		existing[k] = v
	}
	state.StepData[stepID] = existing
}

// mergeHumanAnswer stores the answer under the reserved sub-key without
// disturbing prior data for the step. A prior non-map value is preserved
// under "value".
func mergeHumanAnswer(state *State, stepID string, answer any) {
	mergeStepOutput(state, stepID, map[string]any{HumanInputKey: answer})
}

func (e *Engine) publish(event Event) {
	e.broker.Publish(event)
}

// DescribeInstance renders a short human-readable summary, used by the
// console gateway and logs.
func DescribeInstance(state *State) string {
	return fmt.Sprintf("instance %s (definition %s): %s, %d steps completed",
		state.ID, state.DefinitionID, state.Status, len(state.CompletedSteps))
}
