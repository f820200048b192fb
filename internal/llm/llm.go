package llm

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultModel       = "llama3-70b-8192"
	DefaultEndpoint    = "https://api.groq.com/openai/v1/chat/completions"
	DefaultTemperature = 0.7
)

const defaultLLMHTTPTimeout = 2 * time.Minute

// Config describes how to build an analysis client.
type Config struct {
	Model       string
	Endpoint    string
	Temperature float64
	HTTPClient  *http.Client
}

// Client sends a single prompt to a chat-completion endpoint.
type Client interface {
	// Analyze returns the generated text. An empty string with a nil error
	// means the endpoint answered without content.
	Analyze(ctx context.Context, apiKey, prompt string) (string, error)
	Name() string
}

// New builds an OpenAI-compatible chat client. Zero fields fall back to the
// Groq defaults.
func New(cfg Config) Client {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &chatClient{
		endpoint:    endpoint,
		model:       model,
		temperature: temperature,
		client:      pickHTTPClient(cfg.HTTPClient),
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Large models on shared endpoints can take well over a minute; the caller's context still cancels.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}
