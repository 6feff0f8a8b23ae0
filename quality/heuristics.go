package quality

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// WordCountMetric scores content by word count against a target range.
// Full score inside [Min, Max]; linear falloff outside.
type WordCountMetric struct {
	Min int
	Max int
}

func (m *WordCountMetric) Name() string       { return "word_count" }
func (m *WordCountMetric) Category() Category { return CategoryHeuristic }

func (m *WordCountMetric) Assess(_ context.Context, content string) (float64, string, error) {
	count := len(strings.Fields(content))
	detail := fmt.Sprintf("%d words (target %d-%d)", count, m.Min, m.Max)

	switch {
	case count == 0:
		return 0, detail, nil
	case count < m.Min:
		return float64(count) / float64(m.Min), detail, nil
	case m.Max > 0 && count > m.Max:
		return float64(m.Max) / float64(count), detail, nil
	default:
		return 1, detail, nil
	}
}

// ReadabilityMetric scores content by average sentence length: short
// sentences read easily, very long ones do not. The mapping is a simple
// linear falloff beyond the ideal length.
type ReadabilityMetric struct {
	// IdealSentenceLength is the word count per sentence scoring 1.0.
	// Defaults to 20 when zero.
	IdealSentenceLength int
}

func (m *ReadabilityMetric) Name() string       { return "readability" }
func (m *ReadabilityMetric) Category() Category { return CategoryHeuristic }

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

func (m *ReadabilityMetric) Assess(_ context.Context, content string) (float64, string, error) {
	ideal := m.IdealSentenceLength
	if ideal <= 0 {
		ideal = 20
	}

	var sentences int
	var words int
	for _, s := range sentenceSplit.Split(content, -1) {
		n := len(strings.Fields(s))
		if n == 0 {
			continue
		}
		sentences++
		words += n
	}
	if sentences == 0 {
		return 0, "no sentences found", nil
	}

	avg := float64(words) / float64(sentences)
	detail := fmt.Sprintf("%.1f words/sentence across %d sentences", avg, sentences)
	if avg <= float64(ideal) {
		return 1, detail, nil
	}
	score := float64(ideal) / avg
	return score, detail, nil
}

// GrammarMetric runs a fixed set of regex checks and deducts a fraction
// per finding.
type GrammarMetric struct{}

func (m *GrammarMetric) Name() string       { return "grammar" }
func (m *GrammarMetric) Category() Category { return CategoryHeuristic }

var grammarChecks = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"double space", regexp.MustCompile(`\S  +\S`)},
	{"repeated word", regexp.MustCompile(`(?i)\b(\w+)\s+\1\b`)},
	{"space before punctuation", regexp.MustCompile(`\s+[,.!?;:]`)},
	{"unclosed parenthesis", regexp.MustCompile(`\([^)]*$`)},
}

func (m *GrammarMetric) Assess(_ context.Context, content string) (float64, string, error) {
	if strings.TrimSpace(content) == "" {
		return 0, "empty content", nil
	}

	var findings []string
	for _, check := range grammarChecks {
		if n := len(check.pattern.FindAllString(content, -1)); n > 0 {
			findings = append(findings, fmt.Sprintf("%s x%d", check.name, n))
		}
	}
	if len(findings) == 0 {
		return 1, "no issues found", nil
	}

	score := 1 - 0.2*float64(len(findings))
	if score < 0 {
		score = 0
	}
	return score, strings.Join(findings, "; "), nil
}
