package session

import (
	"context"
	"fmt"
	"sync"
)

type calibrationCall struct {
	X, Y int
	Kind string
}

type fakeSource struct {
	ready       bool
	listener    func(*GazePoint)
	calls       []string
	calibration []calibrationCall
	video       []bool
	overlay     []bool
	stages      []Stage
}

func newFakeSource() *fakeSource {
	return &fakeSource{ready: true}
}

func (f *fakeSource) SetListener(fn func(*GazePoint)) {
	f.calls = append(f.calls, "listen")
	f.listener = fn
}
func (f *fakeSource) Start()         { f.calls = append(f.calls, "start") }
func (f *fakeSource) Pause()         { f.calls = append(f.calls, "pause") }
func (f *fakeSource) Stop()          { f.calls = append(f.calls, "stop") }
func (f *fakeSource) IsReady() bool  { return f.ready }
func (f *fakeSource) Present(s Stage) { f.stages = append(f.stages, s) }
func (f *fakeSource) ShowVideoPreview(on bool) {
	f.video = append(f.video, on)
}
func (f *fakeSource) ShowPredictionOverlay(on bool) {
	f.overlay = append(f.overlay, on)
}
func (f *fakeSource) RecordCalibrationSample(x, y int, kind string) {
	f.calibration = append(f.calibration, calibrationCall{X: x, Y: y, Kind: kind})
}

func (f *fakeSource) emit(x, y float64) {
	if f.listener != nil {
		f.listener(&GazePoint{X: x, Y: y})
	}
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  int
	text   string
	err    error
	panics bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, apiKey, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panics {
		panic(fmt.Sprintf("analyzer exploded for key %q", apiKey))
	}
	return f.text, f.err
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
