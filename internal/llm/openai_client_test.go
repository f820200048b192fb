package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{Endpoint: server.URL + "/chat/completions", Model: "llama3-70b-8192", HTTPClient: server.Client()})
}

func TestChatClientSendsPromptWithBearerKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "llama3-70b-8192", payload.Model)
		assert.InDelta(t, 0.7, payload.Temperature, 1e-9)
		require.Len(t, payload.Messages, 1)
		assert.Equal(t, "user", payload.Messages[0].Role)
		assert.Equal(t, "analyze this", payload.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Looks good.  "}}]}`))
	})

	text, err := client.Analyze(context.Background(), "gsk_test", "analyze this")
	require.NoError(t, err)
	assert.Equal(t, "Looks good.", text)
}

func TestChatClientEmptyChoicesIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	text, err := client.Analyze(context.Background(), "key", "prompt")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestChatClientSurfacesUpstreamErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	})

	_, err := client.Analyze(context.Background(), "bad", "prompt")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid API Key", apiErr.Error())
}

func TestChatClientFallsBackToStatusText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>upstream down</html>`))
	})

	_, err := client.Analyze(context.Background(), "key", "prompt")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "502"), "got %q", err.Error())
}

func TestChatClientRequiresKey(t *testing.T) {
	client := New(Config{Endpoint: "http://127.0.0.1:1"})
	_, err := client.Analyze(context.Background(), "  ", "prompt")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
