package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storycanvas/internal/config"
)

func ptr[T any](v T) *T { return &v }

func testConfig(clientType, baseURL string) *config.Config {
	return &config.Config{
		AIClientType: clientType,
		AIBaseURL:    baseURL,
		AIAPIKey:     "test-key",
		AITimeout:    5 * time.Second,
	}
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Lyra drew her dagger."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(config.AIClientOpenAI, srv.URL+"/v1"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.Model())

	text, usage, err := client.GenerateText(context.Background(), "system block", "What happens next?",
		GenerationParams{Temperature: ptr(0.7), MaxTokens: ptr(500)})
	require.NoError(t, err)

	assert.Equal(t, "Lyra drew her dagger.", text)
	assert.Equal(t, UsageInfo{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17}, usage)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.InDelta(t, 0.7, captured["temperature"], 0.0001)
	assert.EqualValues(t, 500, captured["max_tokens"])
	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "system block", messages[0].(map[string]interface{})["content"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
	assert.Equal(t, "What happens next?", messages[1].(map[string]interface{})["content"])
}

func TestOpenAIClient_ErrorsAreWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded", "type": "insufficient_quota"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(config.AIClientOpenAI, srv.URL+"/v1"), zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.GenerateText(context.Background(), "system", "prompt", GenerationParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func TestOpenAIClient_EmptyChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(config.AIClientOpenAI, srv.URL+"/v1"), zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.GenerateText(context.Background(), "system", "prompt", GenerationParams{})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func TestClients_RejectEmptySystemPrompt(t *testing.T) {
	client, err := NewClient(context.Background(), testConfig(config.AIClientOpenAI, "http://127.0.0.1:1/v1"), zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.GenerateText(context.Background(), "  ", "prompt", GenerationParams{})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func TestOllamaClient_GenerateText(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","created_at":"2024-05-01T12:00:00Z","message":{"role":"assistant","content":"The forest fell silent."},"done":true,"prompt_eval_count":20,"eval_count":6}` + "\n"))
	}))
	defer srv.Close()

	cfg := testConfig(config.AIClientOllama, srv.URL+"/v1")
	cfg.AIAPIKey = ""
	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "llama3", client.Model())

	text, usage, err := client.GenerateText(context.Background(), "system block", "Continue",
		GenerationParams{Temperature: ptr(0.7), MaxTokens: ptr(500)})
	require.NoError(t, err)
	assert.Equal(t, "The forest fell silent.", text)
	assert.Equal(t, 26, usage.TotalTokens)

	assert.Equal(t, false, captured["stream"])
	options, ok := captured["options"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 0.7, options["temperature"], 0.0001)
	assert.EqualValues(t, 500, options["num_predict"])
}

func TestOllamaClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3' not found"}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(config.AIClientOllama, srv.URL), zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.GenerateText(context.Background(), "system", "prompt", GenerationParams{})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), &config.Config{AIClientType: "markov"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient(context.Background(), &config.Config{AIClientType: config.AIClientGemini}, zap.NewNop())
	assert.Error(t, err)
}

func TestGeminiClient_GenerateText(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Mist rose from the lake."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 14, "candidatesTokenCount": 6, "totalTokenCount": 20}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(config.AIClientGemini, srv.URL), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", client.Model())

	text, usage, err := client.GenerateText(context.Background(), "system block", "Continue",
		GenerationParams{Temperature: ptr(0.7), MaxTokens: ptr(500)})
	require.NoError(t, err)
	assert.Equal(t, "Mist rose from the lake.", text)
	assert.Equal(t, UsageInfo{PromptTokens: 14, CompletionTokens: 6, TotalTokens: 20}, usage)

	system, ok := captured["systemInstruction"].(map[string]interface{})
	require.True(t, ok, "systemInstruction missing: %v", captured)
	assert.Contains(t, mustJSON(t, system), "system block")

	genConfig, ok := captured["generationConfig"].(map[string]interface{})
	require.True(t, ok, "generationConfig missing: %v", captured)
	assert.InDelta(t, 0.7, genConfig["temperature"], 0.0001)
	assert.EqualValues(t, 500, genConfig["maxOutputTokens"])

	assert.Contains(t, mustJSON(t, captured["contents"]), "Continue")
}

func TestGeminiClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": ""}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(config.AIClientGemini, srv.URL), zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.GenerateText(context.Background(), "system", "prompt", GenerationParams{})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
