package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/gazescout/internal/probe"
	"github.com/csheth/gazescout/internal/session"
)

type fakeSource struct {
	mu        sync.Mutex
	ready     bool
	starts    int
	stops     int
	pauses    int
	samples   int
	stages    []session.Stage
	published []string
	listener  func(*session.GazePoint)
}

func (f *fakeSource) SetListener(fn func(*session.GazePoint)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = fn
}

func (f *fakeSource) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

func (f *fakeSource) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSource) ShowVideoPreview(bool)      {}
func (f *fakeSource) ShowPredictionOverlay(bool) {}

func (f *fakeSource) RecordCalibrationSample(x, y int, kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
}

func (f *fakeSource) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeSource) Present(stage session.Stage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}

func (f *fakeSource) Publish(kind string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, kind)
	return nil
}

type fakeAnalyzer struct {
	text string
	err  error
}

func (f fakeAnalyzer) Analyze(ctx context.Context, apiKey, prompt string) (string, error) {
	if apiKey == "" {
		return "", errors.New("missing key")
	}
	return f.text, f.err
}

type fakeProber struct {
	result probe.Result
	err    error
}

func (f fakeProber) Check(ctx context.Context, target string) (probe.Result, error) {
	res := f.result
	res.URL = target
	return res, f.err
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) messages() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tea.Msg(nil), r.msgs...)
}
