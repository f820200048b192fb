package llm

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	assert.Same(t, custom, pickHTTPClient(custom))
}

func TestPickHTTPClientUsesLongerTimeout(t *testing.T) {
	client := pickHTTPClient(nil)
	assert.Equal(t, defaultLLMHTTPTimeout, client.Timeout)
}

func TestNewFillsDefaults(t *testing.T) {
	client, ok := New(Config{}).(*chatClient)
	require.True(t, ok)
	assert.Equal(t, DefaultEndpoint, client.endpoint)
	assert.Equal(t, DefaultModel, client.model)
	assert.Equal(t, DefaultTemperature, client.temperature)
}

func TestNewTrimsEndpoint(t *testing.T) {
	client := New(Config{Endpoint: " http://localhost:8080/v1/chat/completions/ ", Model: "mixtral"}).(*chatClient)
	assert.Equal(t, "http://localhost:8080/v1/chat/completions", client.endpoint)
	assert.Equal(t, "chat completions (mixtral)", client.Name())
}
