package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/csheth/gazescout/internal/tuitest"
)

func TestEmptyURLShowsInlineError(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "--bridge-addr", "127.0.0.1:0"},
		Dir:     t.TempDir(),
		Env:     isolatedEnv(t),
		Width:   120,
		Height:  40,
		Steps: []tuitest.Step{
			{WaitFor: "Page to study", Input: tuitest.KeyEnter},
			{WaitFor: "Please enter a URL.", Delay: 100 * time.Millisecond, Input: tuitest.KeyCtrlC},
		},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if !rec.Contains("Please enter a URL.") {
		t.Fatalf("inline error never rendered:\n%s", finalPlain(rec))
	}
}

func TestSubmitThenRestart(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "--bridge-addr", "127.0.0.1:0", "--lang", "es"},
		Dir:     t.TempDir(),
		Env:     isolatedEnv(t),
		Width:   120,
		Height:  40,
		Steps: []tuitest.Step{
			{WaitFor: "Page to study", Input: tuitest.Type("example.com")},
			{Delay: 100 * time.Millisecond, Input: tuitest.KeyEnter},
			{WaitFor: "Starting the camera", Input: tuitest.KeyCtrlR},
			{WaitFor: "Ready for another page.", Delay: 100 * time.Millisecond, Input: tuitest.KeyCtrlC},
		},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if !rec.Contains("Starting the camera for https://example.com") {
		t.Fatalf("initializing screen never rendered:\n%s", finalPlain(rec))
	}
	if !rec.Contains("allow camera access") {
		t.Fatalf("companion page hint missing:\n%s", finalPlain(rec))
	}
}

func isolatedEnv(t *testing.T) []string {
	t.Helper()
	return []string{
		"XDG_CONFIG_HOME=" + t.TempDir(),
		"GAZESCOUT_PROBE_ENABLED=false",
	}
}

func finalPlain(rec *tuitest.Recording) string {
	frame, ok := rec.FinalFrame()
	if !ok {
		return "(no frames)"
	}
	return frame.Plain
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the CLI binary")
	}
	tmp := t.TempDir()
	name := "gazescout-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
