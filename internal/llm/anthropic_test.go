package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Chat(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{"model":"claude","content":[{"type":"text","text":"Hello "},{"type":"text","text":"there"}]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), Request{System: "be brief", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, "be brief", captured["system"])
	assert.EqualValues(t, 1024, captured["max_tokens"])
	_, hasTemperature := captured["temperature"]
	assert.False(t, hasTemperature)
}

func TestAnthropicClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, Config{Provider: "mystery", APIKey: "k"})
	assert.ErrorContains(t, err, "unsupported LLM provider")

	client, err := NewClient(ctx, Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &openAIClient{}, client)

	client, err = NewClient(ctx, Config{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &anthropicClient{}, client)

	_, err = NewClient(ctx, Config{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
