// Package hitl connects the workflow engine's suspension events to a
// human-input gateway and feeds answers back into the engine.
package hitl

import (
	"context"

	"github.com/BaSui01/flowgate/workflow"
)

// Gateway is the human-input collaborator contract. For every
// RequestInput call the gateway must eventually produce exactly one
// answer; the Dispatcher feeds it back through the engine.
type Gateway interface {
	// RequestInput prompts for the given request and blocks until an
	// answer is available.
	RequestInput(ctx context.Context, instanceID string, req workflow.PendingInput) (any, error)

	// NotifyComplete informs the gateway that the instance finished.
	NotifyComplete(instanceID string, final workflow.State)

	// NotifyError informs the gateway that the instance failed.
	NotifyError(instanceID string, message string)
}
