package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubMetric struct {
	name  string
	score float64
	err   error
}

func (m *stubMetric) Name() string       { return m.name }
func (m *stubMetric) Category() Category { return CategoryHeuristic }

func (m *stubMetric) Assess(context.Context, string) (float64, string, error) {
	return m.score, "stub", m.err
}

func TestEngine_AssessAveragesScores(t *testing.T) {
	engine := NewEngine([]Metric{
		&stubMetric{name: "a", score: 1},
		&stubMetric{name: "b", score: 0.5},
	}, 0.7, zaptest.NewLogger(t))

	report := engine.Assess(context.Background(), "whatever")
	assert.InDelta(t, 0.75, report.OverallScore, 0.001)
	assert.True(t, report.Passed)
	assert.Equal(t, 0.7, report.Threshold)
	require.Len(t, report.Metrics, 2)
}

func TestEngine_AssessBelowThresholdFails(t *testing.T) {
	engine := NewEngine([]Metric{
		&stubMetric{name: "a", score: 0.4},
	}, 0.7, zaptest.NewLogger(t))

	report := engine.Assess(context.Background(), "x")
	assert.False(t, report.Passed)
}

func TestEngine_MetricErrorScoresZero(t *testing.T) {
	engine := NewEngine([]Metric{
		&stubMetric{name: "good", score: 1},
		&stubMetric{name: "bad", score: 1, err: errors.New("metric broke")},
	}, 0.4, zaptest.NewLogger(t))

	report := engine.Assess(context.Background(), "x")
	assert.InDelta(t, 0.5, report.OverallScore, 0.001)

	var bad MetricScore
	for _, m := range report.Metrics {
		if m.Name == "bad" {
			bad = m
		}
	}
	assert.Zero(t, bad.Score)
	assert.Equal(t, "metric broke", bad.Error)
}

func TestEngine_NoMetrics(t *testing.T) {
	engine := NewEngine(nil, 0.5, nil)
	report := engine.Assess(context.Background(), "x")
	assert.Zero(t, report.OverallScore)
	assert.False(t, report.Passed)
}
