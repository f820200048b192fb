package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "gazescout dev" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GAZESCOUT_LANGUAGE", "en")

	c := newCLI()
	cmd := c.command()
	args := []string{
		"--lang", "es",
		"--bridge-addr", "127.0.0.1:9100",
		"--ready-timeout", "45s",
		"--llm-model", "llama-3.1-8b-instant",
		"--no-alt-screen",
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := c.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Language != "es" {
		t.Fatalf("flag should beat the environment, got %q", cfg.Language)
	}
	if cfg.Bridge.Addr != "127.0.0.1:9100" || cfg.Ready.Timeout != 45*time.Second || cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.UI.AltScreen {
		t.Fatal("--no-alt-screen should disable the alternate screen")
	}
}

func TestUnsetFlagsKeepDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := newCLI()
	cmd := c.command()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := c.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !cfg.UI.AltScreen || cfg.Language != "en" || cfg.Bridge.Addr != "127.0.0.1:8765" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestRejectsInvalidLanguage(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--lang", "fr"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "language") {
		t.Fatalf("expected a language error, got %v", err)
	}
}
