// Package providers holds the helpers shared by the concrete LLM adapter
// packages: HTTP error mapping, effective-parameter selection, and the
// OpenAI-compatible wire types.
package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BaSui01/flowgate/llm"
	"github.com/BaSui01/flowgate/types"
)

// MapHTTPError maps an HTTP status code to a typed error with a suitable
// retryable flag. Used by every adapter so failure shapes stay uniform.
func MapHTTPError(status int, msg string, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrUnauthorized, msg).
			WithHTTPStatus(status).WithProvider(provider)
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case http.StatusBadRequest:
		msgLower := strings.ToLower(msg)
		if strings.Contains(msgLower, "quota") ||
			strings.Contains(msgLower, "credit") ||
			strings.Contains(msgLower, "limit") {
			return types.NewError(types.ErrQuotaExceeded, msg).
				WithHTTPStatus(status).WithProvider(provider)
		}
		return types.NewError(types.ErrInvalidRequest, msg).
			WithHTTPStatus(status).WithProvider(provider)
	default:
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(status).WithRetryable(status >= 500).WithProvider(provider)
	}
}

// WrapTransportError wraps a client-side transport failure so that the raw
// error shape never leaks past the adapter boundary.
func WrapTransportError(err error, provider string) *types.Error {
	return types.NewError(types.ErrUpstreamError, "request failed").
		WithCause(err).WithHTTPStatus(http.StatusBadGateway).
		WithRetryable(true).WithProvider(provider)
}

// ReadErrorMessage extracts an error message from a response body. It
// tries the common {"error": {"message": ...}} JSON shape first and falls
// back to the raw text.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}
	return string(data)
}

// EffectiveModel picks the model for a call: explicit option, then the
// configured default, then the first supported model.
func EffectiveModel(opts *llm.ChatOptions, configured string, supported []string) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	if configured != "" {
		return configured
	}
	if len(supported) > 0 {
		return supported[0]
	}
	return ""
}

// EffectiveTemperature picks the sampling temperature: explicit option,
// then the configured default, then the adapter's fallback constant.
func EffectiveTemperature(opts *llm.ChatOptions, configured, fallback float32) float32 {
	if opts != nil && opts.Temperature > 0 {
		return opts.Temperature
	}
	if configured > 0 {
		return configured
	}
	return fallback
}

// EffectiveMaxTokens picks the completion token limit: explicit option,
// then the configured default, then the adapter's fallback constant.
func EffectiveMaxTokens(opts *llm.ChatOptions, configured, fallback int) int {
	if opts != nil && opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	if configured > 0 {
		return configured
	}
	return fallback
}

// BearerTokenHeaders sets the standard Bearer auth headers.
func BearerTokenHeaders(r *http.Request, apiKey string) {
	r.Header.Set("Authorization", "Bearer "+apiKey)
	r.Header.Set("Content-Type", "application/json")
}

// SafeCloseBody closes an HTTP response body and ignores the error.
func SafeCloseBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}

// OpenAI-compatible wire types, shared by the openai adapter and reusable
// by any OpenAI-compatible endpoint.

// ChatCompletionMessage is an OpenAI-compatible chat message.
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is an OpenAI-compatible completion request.
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Temperature float32                 `json:"temperature,omitempty"`
}

// ChatCompletionUsage is the OpenAI-compatible token usage block.
type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is an OpenAI-compatible completion response.
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int                   `json:"index"`
		FinishReason string                `json:"finish_reason"`
		Message      ChatCompletionMessage `json:"message"`
	} `json:"choices"`
	Usage *ChatCompletionUsage `json:"usage,omitempty"`
}

// ConvertMessages translates llm messages into the OpenAI-compatible shape.
func ConvertMessages(msgs []llm.Message) []ChatCompletionMessage {
	out := make([]ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
