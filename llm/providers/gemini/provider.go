// Package gemini adapts the Google Gemini generateContent API to the
// common provider contract.
//
// Gemini has no system role. System messages are folded into the
// conversation as context preceding the first user turn, a lossy but
// deterministic transform.
package gemini

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
	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultTimeout    = 60 * time.Second
	fallbackTemp      = float32(0.7)
	fallbackMaxTokens = 1024
)

var supportedModels = []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash"}

// Provider implements llm.Provider for the Gemini API.
type Provider struct {
	cfg    llm.ProviderConfig
	client *http.Client
	logger *zap.Logger
}

// Available reports whether a usable Gemini credential exists.
func Available(cfg llm.ProviderConfig) bool {
	return providers.HasCredential(cfg.APIKey, providers.EnvGeminiAPIKey)
}

// New creates a Gemini provider.
func New(cfg llm.ProviderConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.APIKey = providers.ResolveAPIKey(cfg.APIKey, providers.EnvGeminiAPIKey)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "gemini")),
	}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) SupportedModels() []string {
	return append([]string(nil), supportedModels...)
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // user, model
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
		Index        int           `json:"index"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	ModelVersion string `json:"modelVersion,omitempty"`
	ResponseID   string `json:"responseId,omitempty"`
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// convertContents translates the role-tagged message list into Gemini
// contents. System messages are collected and prepended to the first user
// turn as leading context; "assistant" becomes "model".
func convertContents(msgs []llm.Message) []geminiContent {
	var system []string
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = append(system, m.Content)
		}
	}

	contents := make([]geminiContent, 0, len(msgs))
	systemPending := len(system) > 0

	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			continue
		}
		role := string(m.Role)
		if role == "assistant" {
			role = "model"
		}
		text := m.Content
		if systemPending && role == "user" {
			text = strings.Join(system, "\n\n") + "\n\n" + text
			systemPending = false
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: text}},
		})
	}

	// A conversation with no user turn still needs the system context to
	// reach the model.
	if systemPending {
		contents = append([]geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}},
		}}, contents...)
	}
	return contents
}

func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.ChatResponse, error) {
	model := providers.EffectiveModel(opts, p.cfg.Model, supportedModels)
	body := geminiRequest{
		Contents: convertContents(messages),
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     providers.EffectiveTemperature(opts, p.cfg.Temperature, fallbackTemp),
			MaxOutputTokens: providers.EffectiveMaxTokens(opts, p.cfg.MaxTokens, fallbackMaxTokens),
		},
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(p.cfg.BaseURL, "/"), model)
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

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to decode response").
			WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}
	if len(gr.Candidates) == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "response contained no candidates").
			WithProvider(p.Name())
	}

	var content strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	out := &llm.ChatResponse{
		Content:  content.String(),
		Model:    model,
		Provider: p.Name(),
	}
	if gr.UsageMetadata != nil {
		out.Usage = llm.ChatUsage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gr.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1beta/models", strings.TrimRight(p.cfg.BaseURL, "/"))
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
			fmt.Errorf("gemini health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
