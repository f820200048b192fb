package session

import "math"

// State is the screen the session is currently on.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateCalibrating
	StateTracking
	StateViewingResults
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateCalibrating:
		return "calibrating"
	case StateTracking:
		return "tracking"
	case StateViewingResults:
		return "viewing-results"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	// CalibrationClicks is the click quota before tracking starts. Clicks cycle
	// over the anchors, so every anchor receives more than one sample.
	CalibrationClicks = 20
	// MinAnalysisPoints is the smallest buffer worth sending for analysis.
	MinAnalysisPoints = 20
	// MaxAnalysisPoints caps how many gaze points are embedded in the prompt.
	MaxAnalysisPoints = 250

	calibrationMargin = 50
	calibrationKind   = "click"
)

// GazePoint is a gaze estimate in page pixel coordinates.
type GazePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the size of the page the user is looking at.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultViewport is assumed until the companion page reports its size.
var DefaultViewport = Viewport{Width: 1280, Height: 720}

func (v Viewport) valid() bool {
	return v.Width > 0 && v.Height > 0
}

// CalibrationAnchors returns the nine calibration positions for the viewport:
// the corners, the edge midpoints and the center, walked clockwise from the
// top-left corner and ending in the middle.
func CalibrationAnchors(v Viewport) []GazePoint {
	w := float64(v.Width)
	h := float64(v.Height)
	m := float64(calibrationMargin)
	return []GazePoint{
		{X: m, Y: m},
		{X: w / 2, Y: m},
		{X: w - m, Y: m},
		{X: w - m, Y: h / 2},
		{X: w - m, Y: h - m},
		{X: w / 2, Y: h - m},
		{X: m, Y: h - m},
		{X: m, Y: h / 2},
		{X: w / 2, Y: h / 2},
	}
}

// Round rounds half up, matching how browsers round pixel coordinates.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func calibrationProgress(clicks int) int {
	if clicks <= 0 {
		return 0
	}
	if clicks >= CalibrationClicks {
		return 100
	}
	return Round(float64(clicks) / float64(CalibrationClicks) * 100)
}
