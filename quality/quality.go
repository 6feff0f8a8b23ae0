// Package quality scores textual content against configurable metrics.
// Heuristic metrics are stateless computations; AI metrics prompt through
// the LLM dispatch manager and degrade to a neutral score when every
// provider fails.
package quality

import (
	"context"

	"go.uber.org/zap"
)

// Category classifies how a metric computes its score.
type Category string

const (
	CategoryHeuristic Category = "heuristic"
	CategoryAI        Category = "ai"
)

// Metric scores content on a 0..1 scale.
type Metric interface {
	Name() string
	Category() Category
	// Assess returns the score and a short human-readable detail.
	Assess(ctx context.Context, content string) (float64, string, error)
}

// MetricScore is one metric's contribution to a report.
type MetricScore struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Score    float64  `json:"score"`
	Detail   string   `json:"detail,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Report is the outcome of assessing one piece of content.
type Report struct {
	OverallScore float64       `json:"overall_score"`
	Metrics      []MetricScore `json:"metrics"`
	Passed       bool          `json:"passed"`
	Threshold    float64       `json:"threshold"`
}

// Engine runs a fixed set of metrics and aggregates their scores.
type Engine struct {
	metrics   []Metric
	threshold float64
	logger    *zap.Logger
}

// NewEngine creates a quality engine. Threshold is the minimum overall
// score for Passed.
func NewEngine(metrics []Metric, threshold float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		metrics:   metrics,
		threshold: threshold,
		logger:    logger.With(zap.String("component", "quality_engine")),
	}
}

// Assess scores content with every metric. A failing metric contributes a
// zero score and its error message instead of aborting the report.
func (e *Engine) Assess(ctx context.Context, content string) *Report {
	report := &Report{
		Threshold: e.threshold,
		Metrics:   make([]MetricScore, 0, len(e.metrics)),
	}

	var total float64
	for _, m := range e.metrics {
		score, detail, err := m.Assess(ctx, content)
		entry := MetricScore{
			Name:     m.Name(),
			Category: m.Category(),
			Score:    score,
			Detail:   detail,
		}
		if err != nil {
			entry.Score = 0
			entry.Error = err.Error()
			e.logger.Warn("metric failed",
				zap.String("metric", m.Name()),
				zap.Error(err),
			)
		}
		total += entry.Score
		report.Metrics = append(report.Metrics, entry)
	}

	if len(report.Metrics) > 0 {
		report.OverallScore = total / float64(len(report.Metrics))
	}
	report.Passed = report.OverallScore >= e.threshold
	return report
}
