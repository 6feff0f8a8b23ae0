// Package anthropic adapts the Anthropic messages API to the common
// provider contract.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/flowgate/llm"
	"github.com/BaSui01/flowgate/llm/providers"
	"github.com/BaSui01/flowgate/types"
)

const (
	defaultBaseURL    = "https://api.anthropic.com"
	defaultTimeout    = 60 * time.Second
	apiVersion        = "2023-06-01"
	fallbackTemp      = float32(0.7)
	fallbackMaxTokens = 1024
)

var supportedModels = []string{"claude-sonnet-4-5", "claude-opus-4-1", "claude-haiku-4-5"}

// Provider implements llm.Provider for the Anthropic API.
type Provider struct {
	cfg    llm.ProviderConfig
	client *http.Client
	logger *zap.Logger
}

// Available reports whether a usable Anthropic credential exists.
func Available(cfg llm.ProviderConfig) bool {
	return providers.HasCredential(cfg.APIKey, providers.EnvAnthropicAPIKey)
}

// New creates an Anthropic provider.
func New(cfg llm.ProviderConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.APIKey = providers.ResolveAPIKey(cfg.APIKey, providers.EnvAnthropicAPIKey)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "anthropic")),
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) SupportedModels() []string {
	return append([]string(nil), supportedModels...)
}

// Anthropic wire types. System messages are carried in a dedicated
// top-level field rather than in the message list.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
}

// convertMessages splits out system content (joined when there are several
// system messages) and maps the rest onto the messages array.
func convertMessages(msgs []llm.Message) (string, []anthropicMessage) {
	var system []string
	out := make([]anthropicMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		out = append(out, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return strings.Join(system, "\n\n"), out
}

func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.ChatResponse, error) {
	model := providers.EffectiveModel(opts, p.cfg.Model, supportedModels)
	system, converted := convertMessages(messages)
	body := anthropicRequest{
		Model:       model,
		System:      system,
		Messages:    converted,
		MaxTokens:   providers.EffectiveMaxTokens(opts, p.cfg.MaxTokens, fallbackMaxTokens),
		Temperature: providers.EffectiveTemperature(opts, p.cfg.Temperature, fallbackTemp),
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to create request").
			WithCause(err).WithProvider(p.Name())
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.WrapTransportError(err, p.Name())
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to decode response").
			WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}

	var content strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	out := &llm.ChatResponse{
		Content:  content.String(),
		Model:    ar.Model,
		Provider: p.Name(),
		Usage: llm.ChatUsage{
			PromptTokens:     ar.Usage.InputTokens,
			CompletionTokens: ar.Usage.OutputTokens,
			TotalTokens:      ar.Usage.InputTokens + ar.Usage.OutputTokens,
		},
	}
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("anthropic health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
