// Package openai adapts the OpenAI chat completions API to the common
// provider contract.
package openai

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
	defaultBaseURL    = "https://api.openai.com"
	defaultTimeout    = 60 * time.Second
	fallbackTemp      = float32(0.7)
	fallbackMaxTokens = 1024
)

var supportedModels = []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1"}

// Provider implements llm.Provider for the OpenAI API.
type Provider struct {
	cfg    llm.ProviderConfig
	client *http.Client
	logger *zap.Logger
}

// Available reports whether a usable OpenAI credential exists.
func Available(cfg llm.ProviderConfig) bool {
	return providers.HasCredential(cfg.APIKey, providers.EnvOpenAIAPIKey)
}

// New creates an OpenAI provider.
func New(cfg llm.ProviderConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.APIKey = providers.ResolveAPIKey(cfg.APIKey, providers.EnvOpenAIAPIKey)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "openai")),
	}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) SupportedModels() []string {
	return append([]string(nil), supportedModels...)
}

func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.ChatResponse, error) {
	model := providers.EffectiveModel(opts, p.cfg.Model, supportedModels)
	body := providers.ChatCompletionRequest{
		Model:       model,
		Messages:    providers.ConvertMessages(messages),
		Temperature: providers.EffectiveTemperature(opts, p.cfg.Temperature, fallbackTemp),
		MaxTokens:   providers.EffectiveMaxTokens(opts, p.cfg.MaxTokens, fallbackMaxTokens),
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1/chat/completions", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to create request").
			WithCause(err).WithProvider(p.Name())
	}
	providers.BearerTokenHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.WrapTransportError(err, p.Name())
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var completion providers.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to decode response").
			WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}
	if len(completion.Choices) == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "response contained no choices").
			WithProvider(p.Name())
	}

	out := &llm.ChatResponse{
		Content:  completion.Choices[0].Message.Content,
		Model:    completion.Model,
		Provider: p.Name(),
	}
	if out.Model == "" {
		out.Model = model
	}
	if completion.Usage != nil {
		out.Usage = llm.ChatUsage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		}
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
	providers.BearerTokenHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("openai health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
