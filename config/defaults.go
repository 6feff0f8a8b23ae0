package config

import "time"

// DefaultConfig returns the configuration used when no file or override
// supplies a value.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Primary:   "openai",
			Fallbacks: []string{"anthropic", "gemini"},
			Providers: map[string]ProviderConfig{
				"openai":    {Timeout: 60 * time.Second},
				"anthropic": {Timeout: 60 * time.Second},
				"gemini":    {Timeout: 60 * time.Second},
			},
		},
		Workflow: WorkflowConfig{
			EventBuffer: 64,
		},
		Quality: QualityConfig{
			Threshold:   0.7,
			MinWords:    50,
			MaxWords:    2000,
			AICriterion: "overall clarity and coherence",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
