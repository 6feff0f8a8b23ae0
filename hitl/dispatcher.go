package hitl

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/flowgate/workflow"
)

// Dispatcher subscribes to the engine's event stream and routes the three
// gateway-facing event kinds to a Gateway. The prompt round-trip runs in
// its own goroutine, so a slow human never stalls the engine or the event
// stream.
type Dispatcher struct {
	engine  *workflow.Engine
	gateway Gateway
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher bridging engine and gateway.
func NewDispatcher(engine *workflow.Engine, gateway Gateway, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		engine:  engine,
		gateway: gateway,
		logger:  logger.With(zap.String("component", "hitl_dispatcher")),
	}
}

// Start subscribes to the engine and consumes events on a new goroutine.
// The subscription is established before Start returns, so events
// published afterwards are never missed. The returned channel closes when
// the event stream ends.
func (d *Dispatcher) Start(ctx context.Context) <-chan struct{} {
	events := d.engine.Subscribe(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.loop(ctx, events)
	}()
	return done
}

// Run consumes engine events until ctx is cancelled or the engine closes.
// It blocks.
func (d *Dispatcher) Run(ctx context.Context) {
	d.loop(ctx, d.engine.Subscribe(ctx))
}

func (d *Dispatcher) loop(ctx context.Context, events <-chan workflow.Event) {
	for event := range events {
		d.handle(ctx, event)
	}
	d.wg.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, event workflow.Event) {
	switch payload := event.Payload.(type) {
	case workflow.HumanInputRequiredPayload:
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.requestInput(ctx, event.InstanceID, payload.Request)
		}()

	case workflow.WorkflowCompletedPayload:
		d.gateway.NotifyComplete(event.InstanceID, payload.State)

	case workflow.WorkflowFailedPayload:
		d.gateway.NotifyError(event.InstanceID, payload.Error)
	}
}

func (d *Dispatcher) requestInput(ctx context.Context, instanceID string, req workflow.PendingInput) {
	answer, err := d.gateway.RequestInput(ctx, instanceID, req)
	if err != nil {
		d.logger.Warn("gateway failed to produce an answer",
			zap.String("instance_id", instanceID),
			zap.String("step_id", req.StepID),
			zap.Error(err),
		)
		return
	}
	if err := d.engine.ProvideHumanInput(ctx, instanceID, answer); err != nil {
		d.logger.Warn("failed to deliver human input",
			zap.String("instance_id", instanceID),
			zap.String("step_id", req.StepID),
			zap.Error(err),
		)
	}
}
