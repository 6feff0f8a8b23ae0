package hitl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/BaSui01/flowgate/workflow"
)

// ConsoleGateway prompts on a terminal. Prompts are serialized with a
// mutex so concurrent instances never interleave on the same tty.
type ConsoleGateway struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleGateway creates a gateway reading answers from in and writing
// prompts to out.
func NewConsoleGateway(in io.Reader, out io.Writer) *ConsoleGateway {
	return &ConsoleGateway{in: bufio.NewReader(in), out: out}
}

func (g *ConsoleGateway) RequestInput(ctx context.Context, instanceID string, req workflow.PendingInput) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fmt.Fprintf(g.out, "\n[%s] %s\n", instanceID, req.Prompt)
	switch req.Kind {
	case workflow.InputKindChoice:
		for i, choice := range req.Choices {
			fmt.Fprintf(g.out, "  %d) %s\n", i+1, choice)
		}
		fmt.Fprint(g.out, "choice: ")
	case workflow.InputKindApproval:
		fmt.Fprint(g.out, "approve? [y/n]: ")
	default:
		fmt.Fprint(g.out, "> ")
	}

	line, err := g.in.ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	answer := strings.TrimSpace(line)

	if req.Kind == workflow.InputKindApproval {
		return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes"), nil
	}
	return answer, nil
}

func (g *ConsoleGateway) NotifyComplete(instanceID string, final workflow.State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprintf(g.out, "\n%s\n", workflow.DescribeInstance(&final))
}

func (g *ConsoleGateway) NotifyError(instanceID string, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprintf(g.out, "\n[%s] workflow failed: %s\n", instanceID, message)
}

// ScriptedGateway answers prompts from a canned map of step id to answer,
// falling back to a default. Used in tests and non-interactive runs.
type ScriptedGateway struct {
	mu       sync.Mutex
	answers  map[string]any
	fallback any

	completed []string
	failed    map[string]string
}

// NewScriptedGateway creates a gateway with per-step answers and a
// fallback for unlisted steps.
func NewScriptedGateway(answers map[string]any, fallback any) *ScriptedGateway {
	return &ScriptedGateway{
		answers:  answers,
		fallback: fallback,
		failed:   make(map[string]string),
	}
}

func (g *ScriptedGateway) RequestInput(ctx context.Context, instanceID string, req workflow.PendingInput) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if answer, ok := g.answers[req.StepID]; ok {
		return answer, nil
	}
	return g.fallback, nil
}

func (g *ScriptedGateway) NotifyComplete(instanceID string, final workflow.State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, instanceID)
}

func (g *ScriptedGateway) NotifyError(instanceID string, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed[instanceID] = message
}

// Completed returns the instance ids reported complete.
func (g *ScriptedGateway) Completed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.completed...)
}

// FailureMessage returns the recorded failure message for an instance.
func (g *ScriptedGateway) FailureMessage(instanceID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	msg, ok := g.failed[instanceID]
	return msg, ok
}
