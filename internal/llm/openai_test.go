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

func TestOpenAIClientText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var got openAIChatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "gpt-4", got.Model)
		assert.Empty(t, got.Functions)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL)
	out, err := c.Complete(context.Background(), Request{
		Model:    "gpt-4",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Content)
	assert.Nil(t, out.FunctionCall)
}

func TestOpenAIClientFunctionCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got openAIChatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Len(t, got.Functions, 1)
		assert.Equal(t, map[string]any{"name": "design_new_component_api"}, got.FunctionCall)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"function_call":{"name":"design_new_component_api","arguments":"{\"new_component_name\":\"PricingCard\"}"}}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL)
	out, err := c.Complete(context.Background(), Request{
		Model:     "gpt-3.5-turbo",
		Messages:  []Message{{Role: RoleUser, Content: "design"}},
		Functions: []Function{{Name: "design_new_component_api", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "PricingCard", out.FunctionCall["new_component_name"])
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL)
	_, err := c.Complete(context.Background(), Request{Model: "gpt-4"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL)
	_, err := c.Complete(context.Background(), Request{Model: "gpt-4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}
