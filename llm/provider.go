package llm

import (
	"context"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatOptions carries per-call overrides. Zero values mean "use the
// adapter's configured default, then the provider-specific fallback".
type ChatOptions struct {
	Model       string            `json:"model,omitempty"`
	Temperature float32           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ChatUsage is the normalized token accounting for one completion.
// All fields are zero when the provider does not report usage.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the normalized result shape shared by every adapter.
type ChatResponse struct {
	Content  string    `json:"content"`
	Usage    ChatUsage `json:"usage"`
	Model    string    `json:"model"`
	Provider string    `json:"provider"`
}

// HealthStatus reports the outcome of a provider health probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider adapts one LLM backend to the common chat contract.
// Chat must pick the effective model and sampling parameters
// (explicit option, then configured default, then the adapter's fallback
// constant), translate the role-tagged messages into the provider's native
// shape, and normalize the result. Any underlying failure is wrapped into
// *types.Error carrying the provider name.
type Provider interface {
	// Name returns the stable provider identifier.
	Name() string

	// SupportedModels returns the model identifiers the adapter declares.
	SupportedModels() []string

	// Chat performs a synchronous completion request.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

	// HealthCheck performs a minimal low-cost request against the backend.
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}

// ProviderType tags a provider kind in configuration and registries.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGemini    ProviderType = "gemini"
)

// ProviderConfig is the flat per-provider configuration accepted by
// adapter constructors and the registry.
type ProviderConfig struct {
	APIKey      string        `json:"api_key" yaml:"api_key"`
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	Model       string        `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature float32       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}
