package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/flowgate/llm"
	"github.com/BaSui01/flowgate/types"
)

func candidateResponse(text string) geminiResponse {
	var gr geminiResponse
	gr.Candidates = append(gr.Candidates, struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
		Index        int           `json:"index"`
	}{
		Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: text}}},
	})
	return gr
}

func TestConvertContents_SystemFoldsIntoFirstUserTurn(t *testing.T) {
	contents := convertContents([]llm.Message{
		{Role: llm.RoleSystem, Content: "You are terse."},
		{Role: llm.RoleSystem, Content: "Answer in English."},
		{Role: llm.RoleUser, Content: "Hello"},
		{Role: llm.RoleAssistant, Content: "Hi"},
		{Role: llm.RoleUser, Content: "Bye"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "You are terse.\n\nAnswer in English.\n\nHello", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "Hi", contents[1].Parts[0].Text)
	// Later user turns stay untouched.
	assert.Equal(t, "Bye", contents[2].Parts[0].Text)
}

func TestConvertContents_SystemOnlyConversation(t *testing.T) {
	contents := convertContents([]llm.Message{
		{Role: llm.RoleSystem, Content: "Context."},
		{Role: llm.RoleAssistant, Content: "Noted."},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "Context.", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
}

func TestConvertContents_NoSystemMessages(t *testing.T) {
	contents := convertContents([]llm.Message{
		{Role: llm.RoleUser, Content: "Hello"},
	})
	require.Len(t, contents, 1)
	assert.Equal(t, "Hello", contents[0].Parts[0].Text)
}

func TestProvider_Chat(t *testing.T) {
	var got geminiRequest
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(candidateResponse("pong"))
	}))
	defer server.Close()

	p := New(llm.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gemini-2.5-flash",
	}, zaptest.NewLogger(t))

	resp, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "Be short."},
		{Role: llm.RoleUser, Content: "ping"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "pong", resp.Content)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "Be short.\n\nping", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 0.001)
	assert.Equal(t, 1024, got.GenerationConfig.MaxOutputTokens)
}

func TestProvider_ChatUsageMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gr := candidateResponse("ok")
		gr.UsageMetadata = &struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		}{PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15}
		json.NewEncoder(w).Encode(gr)
	}))
	defer server.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: server.URL, Model: "gemini-2.5-flash"}, nil)
	resp, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, llm.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, resp.Usage)
}

func TestProvider_ChatErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "quota pressure"},
		})
	}))
	defer server.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: server.URL, Model: "gemini-2.5-flash"}, nil)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}}, nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrRateLimited))
	assert.True(t, types.IsRetryable(err))
}

func TestProvider_ChatEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer server.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: server.URL, Model: "gemini-2.5-flash"}, nil)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}}, nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUpstreamError))
}

func TestProvider_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: server.URL}, nil)
	st, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Healthy)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	p = New(llm.ProviderConfig{APIKey: "k", BaseURL: down.URL}, nil)
	st, err = p.HealthCheck(context.Background())
	require.Error(t, err)
	assert.False(t, st.Healthy)
}
