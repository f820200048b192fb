package gaze

import (
	"encoding/json"
	"time"
)

// Message is the JSON frame exchanged with the companion page in both
// directions.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type outbound struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Commands sent to the page.
const (
	CmdStart             = "start"
	CmdPause             = "pause"
	CmdResume            = "resume"
	CmdStop              = "stop"
	CmdVideoPreview      = "video_preview"
	CmdPredictionOverlay = "prediction_overlay"
	CmdCalibrationSample = "calibration_sample"
	CmdStage             = "stage"
)

// Events received from the page.
const (
	EvtReady            = "ready"
	EvtCameraError      = "camera_error"
	EvtGaze             = "gaze"
	EvtViewport         = "viewport"
	EvtCalibrationClick = "calibration_click"
	EvtFrameBlocked     = "frame_blocked"
)

type togglePayload struct {
	Enabled bool `json:"enabled"`
}

type calibrationPayload struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Kind string `json:"kind"`
}

type cameraErrorPayload struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

type frameBlockedPayload struct {
	URL string `json:"url"`
}

// EventKind tags what an Event reports.
type EventKind int

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventReady
	EventCameraError
	EventViewport
	EventCalibrationClick
	EventFrameBlocked
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventReady:
		return "ready"
	case EventCameraError:
		return "camera-error"
	case EventViewport:
		return "viewport"
	case EventCalibrationClick:
		return "calibration-click"
	case EventFrameBlocked:
		return "frame-blocked"
	default:
		return "unknown"
	}
}

// Event is a page notification other than a gaze sample.
type Event struct {
	Kind     EventKind
	ClientID string
	Width    int
	Height   int
	URL      string
	Err      error
}
