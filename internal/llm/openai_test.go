package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletion(content string) string {
	resp := map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenAIClient, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:         "test-key",
		BaseURL:        ts.URL,
		Model:          "gpt-4o-mini",
		Timeout:        5 * time.Second,
		RequestSpacing: 0,
	})
	return client, ts
}

func etaFormat() *ResponseFormat {
	return SchemaFormat("timeline_estimate", map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"eta": map[string]interface{}{"type": "string"},
		},
		"required":             []interface{}{"eta"},
		"additionalProperties": false,
	})
}

func TestGenerate_ValidResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)
		assert.Equal(t, "timeline_estimate", req.ResponseFormat.JSONSchema.Name)

		fmt.Fprint(w, chatCompletion(`{"eta": "By the early 2030s"}`))
	})

	raw, err := client.Generate(context.Background(), "when?", etaFormat())
	require.NoError(t, err)
	assert.JSONEq(t, `{"eta": "By the early 2030s"}`, string(raw))
}

func TestGenerate_NonConformingResponseFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion(`{"estimate": "soon"}`))
	})

	_, err := client.Generate(context.Background(), "when?", etaFormat())
	require.Error(t, err)

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "timeline_estimate", ge.Step)
}

func TestGenerate_FencedResponseIsExtracted(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion("```json\n{\"eta\": \"Within 5 years\"}\n```"))
	})

	raw, err := client.Generate(context.Background(), "when?", etaFormat())
	require.NoError(t, err)
	assert.JSONEq(t, `{"eta": "Within 5 years"}`, string(raw))
}

func TestGenerate_RequiresFormat(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion("{}"))
	})

	_, err := client.Generate(context.Background(), "when?", nil)
	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
}

func TestComplete_FreeText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.ResponseFormat)

		fmt.Fprint(w, chatCompletion("plain prose, no schema"))
	})

	text, err := client.Complete(context.Background(), "say something")
	require.NoError(t, err)
	assert.Equal(t, "plain prose, no schema", text)
}

func TestRateLimit_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "fail-fast default must not retry")
}

func TestRateLimit_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, chatCompletion("recovered"))
	}))
	defer ts.Close()

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    ts.URL,
		Model:      "gpt-4o-mini",
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	})

	text, err := client.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAPIErrorSurfaces(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": {"message": "model overloaded", "type": "server_error"}}`)
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestMissingAPIKey(t *testing.T) {
	client := NewOpenAIClientWithConfig(OpenAIConfig{
		BaseURL: "http://localhost:0",
		Model:   "gpt-4o-mini",
		Timeout: time.Second,
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
