// Package config provides flowgate's configuration structures and a
// loader layering defaults, a YAML file, and environment overrides.
package config

import (
	"time"

	"github.com/BaSui01/flowgate/llm"
)

// Config is the complete flowgate configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Quality  QualityConfig  `yaml:"quality"`
	Log      LogConfig      `yaml:"log"`
}

// LLMConfig selects the dispatch primary, fallbacks, and the per-provider
// adapter settings.
type LLMConfig struct {
	Primary   string                    `yaml:"primary"`
	Fallbacks []string                  `yaml:"fallbacks"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures one adapter. API keys left empty are resolved
// from the provider's environment variable at construction time.
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// WorkflowConfig configures the execution engine.
type WorkflowConfig struct {
	// EventBuffer is the per-subscriber event channel buffer.
	EventBuffer int `yaml:"event_buffer"`
}

// QualityConfig configures the quality scoring engine.
type QualityConfig struct {
	Threshold   float64 `yaml:"threshold"`
	MinWords    int     `yaml:"min_words"`
	MaxWords    int     `yaml:"max_words"`
	EnableAI    bool    `yaml:"enable_ai"`
	AICriterion string  `yaml:"ai_criterion"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format: json or console.
	Format string `yaml:"format"`
}

// ManagerConfig converts the LLM section into the dispatch manager's
// configuration.
func (c LLMConfig) ManagerConfig() llm.ManagerConfig {
	out := llm.ManagerConfig{
		Primary:   llm.ProviderType(c.Primary),
		Providers: make(map[llm.ProviderType]llm.ProviderConfig, len(c.Providers)),
	}
	for _, f := range c.Fallbacks {
		out.Fallbacks = append(out.Fallbacks, llm.ProviderType(f))
	}
	for name, pc := range c.Providers {
		out.Providers[llm.ProviderType(name)] = llm.ProviderConfig{
			APIKey:      pc.APIKey,
			BaseURL:     pc.BaseURL,
			Model:       pc.Model,
			Temperature: pc.Temperature,
			MaxTokens:   pc.MaxTokens,
			Timeout:     pc.Timeout,
		}
	}
	return out
}
