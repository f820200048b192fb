package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/gazescout/internal/llm"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultBridgeAddr, cfg.Bridge.Addr)
	assert.Equal(t, llm.DefaultEndpoint, cfg.LLM.Endpoint)
	assert.Equal(t, llm.DefaultModel, cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 20*time.Second, cfg.Ready.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Ready.Interval)
	assert.True(t, cfg.Probe.Enabled)
	assert.True(t, cfg.UI.AltScreen)
	assert.Equal(t, "en", cfg.Language)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "gazescout.yaml", `
bridge:
  addr: 127.0.0.1:9999
  allowed_origins: ["http://localhost:3000"]
llm:
  model: llama-3.1-8b-instant
ready:
  timeout: 45s
language: es
`)
	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Bridge.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Bridge.AllowedOrigins)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 45*time.Second, cfg.Ready.Timeout)
	assert.Equal(t, "es", cfg.Language)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "gazescout.toml", "language = \"en\"\n")
	t.Setenv("GAZESCOUT_LANGUAGE", "ES")
	t.Setenv("GAZESCOUT_READY_TIMEOUT", "5s")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "es", cfg.Language)
	assert.Equal(t, 5*time.Second, cfg.Ready.Timeout)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load(NewViper(), "")
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"language":         func(c *Config) { c.Language = "fr" },
		"ready timeout":    func(c *Config) { c.Ready.Timeout = 0 },
		"ready interval":   func(c *Config) { c.Ready.Interval = time.Minute },
		"bridge addr":      func(c *Config) { c.Bridge.Addr = "localhost" },
		"endpoint":         func(c *Config) { c.LLM.Endpoint = "groq" },
		"model":            func(c *Config) { c.LLM.Model = " " },
		"temperature":      func(c *Config) { c.LLM.Temperature = 3 },
		"zero temperature": func(c *Config) { c.LLM.Temperature = 0 },
		"probe timeout":    func(c *Config) { c.Probe.Timeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
