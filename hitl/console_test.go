package hitl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/flowgate/workflow"
)

func TestConsoleGateway_TextInput(t *testing.T) {
	var out bytes.Buffer
	g := NewConsoleGateway(strings.NewReader("a fine answer\n"), &out)

	answer, err := g.RequestInput(context.Background(), "inst-1", workflow.PendingInput{
		StepID: "ask",
		Prompt: "What do you think?",
		Kind:   workflow.InputKindText,
	})
	require.NoError(t, err)
	assert.Equal(t, "a fine answer", answer)
	assert.Contains(t, out.String(), "What do you think?")
	assert.Contains(t, out.String(), "inst-1")
}

func TestConsoleGateway_Approval(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no\n", false},
		{"anything else\n", false},
	}
	for _, tc := range cases {
		g := NewConsoleGateway(strings.NewReader(tc.line), &bytes.Buffer{})
		answer, err := g.RequestInput(context.Background(), "i", workflow.PendingInput{
			StepID: "ok",
			Kind:   workflow.InputKindApproval,
		})
		require.NoError(t, err)
		assert.Equalf(t, tc.want, answer, "input %q", tc.line)
	}
}

func TestConsoleGateway_ChoiceRendersOptions(t *testing.T) {
	var out bytes.Buffer
	g := NewConsoleGateway(strings.NewReader("blue\n"), &out)

	answer, err := g.RequestInput(context.Background(), "i", workflow.PendingInput{
		StepID:  "color",
		Prompt:  "Pick a color",
		Kind:    workflow.InputKindChoice,
		Choices: []string{"red", "blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, "blue", answer)
	assert.Contains(t, out.String(), "1) red")
	assert.Contains(t, out.String(), "2) blue")
}

func TestConsoleGateway_EOFWithoutInput(t *testing.T) {
	g := NewConsoleGateway(strings.NewReader(""), &bytes.Buffer{})
	_, err := g.RequestInput(context.Background(), "i", workflow.PendingInput{StepID: "ask"})
	require.Error(t, err)
}

func TestConsoleGateway_LastLineWithoutNewline(t *testing.T) {
	g := NewConsoleGateway(strings.NewReader("final"), &bytes.Buffer{})
	answer, err := g.RequestInput(context.Background(), "i", workflow.PendingInput{StepID: "ask"})
	require.NoError(t, err)
	assert.Equal(t, "final", answer)
}

func TestScriptedGateway_AnswersAndFallback(t *testing.T) {
	g := NewScriptedGateway(map[string]any{"known": 7}, "default")

	answer, err := g.RequestInput(context.Background(), "i", workflow.PendingInput{StepID: "known"})
	require.NoError(t, err)
	assert.Equal(t, 7, answer)

	answer, err = g.RequestInput(context.Background(), "i", workflow.PendingInput{StepID: "other"})
	require.NoError(t, err)
	assert.Equal(t, "default", answer)
}
