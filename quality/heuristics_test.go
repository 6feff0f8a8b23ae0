package quality

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordCountMetric(t *testing.T) {
	m := &WordCountMetric{Min: 4, Max: 8}
	ctx := context.Background()

	score, _, err := m.Assess(ctx, "one two three four five")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	score, _, err = m.Assess(ctx, "too short")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 0.001)

	score, detail, err := m.Assess(ctx, strings.Repeat("word ", 16))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 0.001)
	assert.Contains(t, detail, "16 words")

	score, _, err = m.Assess(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestReadabilityMetric(t *testing.T) {
	m := &ReadabilityMetric{}
	ctx := context.Background()

	score, _, err := m.Assess(ctx, "Short sentence. Another short one!")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	// One 40-word sentence against the default ideal of 20.
	long := strings.TrimSpace(strings.Repeat("word ", 40)) + "."
	score, detail, err := m.Assess(ctx, long)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 0.001)
	assert.Contains(t, detail, "40.0 words/sentence")

	score, _, err = m.Assess(ctx, "   ")
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestGrammarMetric(t *testing.T) {
	m := &GrammarMetric{}
	ctx := context.Background()

	score, detail, err := m.Assess(ctx, "A perfectly clean sentence.")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, "no issues found", detail)

	score, detail, err = m.Assess(ctx, "This has  a double space and the the repeated word.")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, score, 0.001)
	assert.Contains(t, detail, "double space")
	assert.Contains(t, detail, "repeated word")

	score, _, err = m.Assess(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, score)
}
