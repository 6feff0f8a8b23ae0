package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/flowgate/types"
)

type stubChatter struct {
	reply string
	err   error
}

func (c *stubChatter) Prompt(ctx context.Context, system, user string) (string, error) {
	return c.reply, c.err
}

func TestLLMMetric_ParsesScore(t *testing.T) {
	m := NewLLMMetric("relevance", "stays on topic", &stubChatter{reply: "Score: 8"}, zaptest.NewLogger(t))

	score, detail, err := m.Assess(context.Background(), "content")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score, 0.001)
	assert.Contains(t, detail, "8.0/10")
	assert.Equal(t, CategoryAI, m.Category())
}

func TestLLMMetric_ParsesDecimalAndNoise(t *testing.T) {
	m := NewLLMMetric("tone", "professional tone", &stubChatter{
		reply: "After careful review.\nscore: 7.5 out of ten",
	}, nil)

	score, _, err := m.Assess(context.Background(), "content")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, score, 0.001)
}

func TestLLMMetric_ClampsOutOfRangeScore(t *testing.T) {
	m := NewLLMMetric("x", "y", &stubChatter{reply: "Score: 15"}, nil)
	score, _, err := m.Assess(context.Background(), "content")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestLLMMetric_UnparseableReply(t *testing.T) {
	m := NewLLMMetric("x", "y", &stubChatter{reply: "I decline to rate this."}, nil)
	_, _, err := m.Assess(context.Background(), "content")
	require.Error(t, err)
}

func TestLLMMetric_DegradesToNeutralWhenAllProvidersFail(t *testing.T) {
	m := NewLLMMetric("x", "y", &stubChatter{
		err: types.NewError(types.ErrAllProvidersFailed, "all 2 providers failed"),
	}, zaptest.NewLogger(t))

	score, detail, err := m.Assess(context.Background(), "content")
	require.NoError(t, err)
	assert.Equal(t, neutralScore, score)
	assert.Contains(t, detail, "neutral")
}

func TestLLMMetric_OtherErrorsPropagate(t *testing.T) {
	m := NewLLMMetric("x", "y", &stubChatter{err: errors.New("context cancelled")}, nil)
	_, _, err := m.Assess(context.Background(), "content")
	require.Error(t, err)
}
