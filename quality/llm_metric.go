package quality

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/flowgate/llm"
	"github.com/BaSui01/flowgate/types"
)

// neutralScore is returned when every LLM provider is down: the assessor
// degrades gracefully instead of failing the whole report.
const neutralScore = 0.5

var scorePattern = regexp.MustCompile(`(?i)score:\s*([0-9]+(?:\.[0-9]+)?)`)

// Chatter is the slice of the dispatch manager the metric needs.
type Chatter interface {
	Prompt(ctx context.Context, system, user string) (string, error)
}

// LLMMetric asks an LLM to score content against a criterion. The model
// is instructed to reply with "Score: N" on a 0-10 scale.
type LLMMetric struct {
	name      string
	criterion string
	manager   Chatter
	logger    *zap.Logger
}

// NewLLMMetric creates an AI-backed metric.
func NewLLMMetric(name, criterion string, manager Chatter, logger *zap.Logger) *LLMMetric {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMMetric{
		name:      name,
		criterion: criterion,
		manager:   manager,
		logger:    logger.With(zap.String("metric", name)),
	}
}

func (m *LLMMetric) Name() string       { return m.name }
func (m *LLMMetric) Category() Category { return CategoryAI }

func (m *LLMMetric) Assess(ctx context.Context, content string) (float64, string, error) {
	system := "You are a strict content quality reviewer. " +
		"Reply with a single line of the form \"Score: N\" where N is 0-10."
	user := fmt.Sprintf("Criterion: %s\n\nContent:\n%s", m.criterion, content)

	reply, err := m.manager.Prompt(ctx, system, user)
	if err != nil {
		if types.IsCode(err, types.ErrAllProvidersFailed) {
			m.logger.Warn("all providers failed, using neutral score", zap.Error(err))
			return neutralScore, "neutral score: no provider available", nil
		}
		return 0, "", err
	}

	score, ok := parseScore(reply)
	if !ok {
		return 0, "", types.NewErrorf(types.ErrInvalidRequest,
			"could not parse a score from model reply %q", truncate(reply, 80))
	}
	return score, fmt.Sprintf("model scored %.1f/10", score*10), nil
}

// parseScore extracts "Score: N" and normalizes the 0-10 scale to 0..1.
func parseScore(reply string) (float64, bool) {
	match := scorePattern.FindStringSubmatch(reply)
	if match == nil {
		return 0, false
	}
	raw, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	score := raw / 10
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Chatter = (*llm.Manager)(nil)
