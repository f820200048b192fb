// Package config loads gazescout settings from defaults, an optional config
// file, GAZESCOUT_* environment variables and command-line flags. The target
// URL and the analysis API key are session input and never come from here.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/csheth/gazescout/internal/llm"
	"github.com/csheth/gazescout/internal/session"
)

const (
	EnvPrefix  = "GAZESCOUT"
	configName = "gazescout"

	DefaultBridgeAddr    = "127.0.0.1:8765"
	DefaultReadyTimeout  = 20 * time.Second
	DefaultReadyInterval = 500 * time.Millisecond
	DefaultLLMTimeout    = 2 * time.Minute
	DefaultProbeTimeout  = 8 * time.Second
	DefaultLanguage      = "en"
)

// Config is the resolved program configuration.
type Config struct {
	Bridge   BridgeConfig `mapstructure:"bridge"`
	LLM      LLMConfig    `mapstructure:"llm"`
	Ready    ReadyConfig  `mapstructure:"ready"`
	Probe    ProbeConfig  `mapstructure:"probe"`
	UI       UIConfig     `mapstructure:"ui"`
	Language string       `mapstructure:"language"`
}

type BridgeConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ReadyConfig bounds the wait for the browser engine to come up.
type ReadyConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}

type ProbeConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type UIConfig struct {
	AltScreen bool   `mapstructure:"alt_screen"`
	LogFile   string `mapstructure:"log_file"`
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bridge.addr", DefaultBridgeAddr)
	v.SetDefault("bridge.allowed_origins", []string{})
	v.SetDefault("llm.endpoint", llm.DefaultEndpoint)
	v.SetDefault("llm.model", llm.DefaultModel)
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("ready.timeout", DefaultReadyTimeout)
	v.SetDefault("ready.interval", DefaultReadyInterval)
	v.SetDefault("probe.enabled", true)
	v.SetDefault("probe.timeout", DefaultProbeTimeout)
	v.SetDefault("ui.alt_screen", true)
	v.SetDefault("ui.log_file", "")
	v.SetDefault("language", DefaultLanguage)
}

// Load reads path when given, otherwise looks for gazescout.{yaml,toml,json}
// in the working directory and the user config directory. A missing default
// file is not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Bridge.Addr); err != nil {
		return fmt.Errorf("bridge.addr %q: %w", c.Bridge.Addr, err)
	}
	endpoint, err := url.Parse(c.LLM.Endpoint)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return fmt.Errorf("llm.endpoint %q must be an absolute http(s) URL", c.LLM.Endpoint)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must not be empty")
	}
	// the client treats an unset temperature as the default, so 0 cannot be honoured
	if c.LLM.Temperature <= 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature %g must be within (0, 2]", c.LLM.Temperature)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.Ready.Timeout <= 0 {
		return fmt.Errorf("ready.timeout must be positive, got %s", c.Ready.Timeout)
	}
	if c.Ready.Interval <= 0 || c.Ready.Interval > c.Ready.Timeout {
		return fmt.Errorf("ready.interval %s must be positive and not exceed ready.timeout", c.Ready.Interval)
	}
	if c.Probe.Enabled && c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be positive, got %s", c.Probe.Timeout)
	}
	if !session.Supported(c.Language) {
		return fmt.Errorf("language %q is not supported (use en or es)", c.Language)
	}
	return nil
}
