package tui

import (
	"github.com/csheth/gazescout/internal/gaze"
	"github.com/csheth/gazescout/internal/probe"
	"github.com/csheth/gazescout/internal/session"
)

const heroTagline = "See where eyes land on your page."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	heatmapContainer          = "heatmap"
)

type inputFocus int

const (
	focusURL inputFocus = iota
	focusAPIKey
)

// readyResultMsg reports how the readiness wait for a session ended.
type readyResultMsg struct {
	generation uint64
	err        error
}

type analysisResultMsg struct {
	outcome session.AnalysisOutcome
}

type probeResultMsg struct {
	generation uint64
	result     probe.Result
	err        error
}

// gazeMsg carries a sample from the bridge goroutines to the update loop.
// Samples from an earlier session are dropped by the controller.
type gazeMsg struct {
	generation uint64
	point      *session.GazePoint
}

type bridgeEventMsg struct {
	event gaze.Event
}
