package session

import (
	"errors"
	"io"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// GazeSource is the gaze-estimation engine the controller drives.
type GazeSource interface {
	SetListener(func(*GazePoint))
	Start()
	Pause()
	Stop()
	ShowVideoPreview(bool)
	ShowPredictionOverlay(bool)
	RecordCalibrationSample(x, y int, kind string)
	IsReady() bool
}

// Presenter is implemented by sources that also drive the page the user is
// looking at. The controller pushes a Stage after every transition.
type Presenter interface {
	Present(Stage)
}

// Stage is what the companion page needs to draw for the current state.
type Stage struct {
	Generation uint64     `json:"generation"`
	State      string     `json:"state"`
	TargetURL  string     `json:"targetUrl,omitempty"`
	Anchor     *GazePoint `json:"anchor,omitempty"`
	Remaining  int        `json:"remaining"`
	Progress   int        `json:"progress"`
}

// Options wires a controller.
type Options struct {
	Source   GazeSource
	Messages Catalog
	// Listener receives samples from the source tagged with the generation
	// of the session that installed it. It defaults to the controller's own
	// DeliverGaze; programs that own the session on another goroutine pass a
	// function that forwards both there instead.
	Listener func(generation uint64, p *GazePoint)
	Logger   *log.Logger
}

// Controller owns the session record and is the only thing that mutates it.
// It is not safe for concurrent use: every method must be called from the
// goroutine that owns the session.
type Controller struct {
	source   GazeSource
	msgs     Catalog
	listener func(uint64, *GazePoint)
	logger   *log.Logger

	generation uint64
	id         string
	rec        record
}

type record struct {
	state         State
	targetURL     string
	apiKey        string
	gaze          []GazePoint
	currentGaze   *GazePoint
	clicks        int
	anchorIndex   int
	anchors       []GazePoint
	result        string
	hasResult     bool
	analyzing     bool
	errorMessage  string
	failure       *Error
	restriction   *Error
	sourceStarted bool
	viewport      Viewport
}

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// New returns a controller in the Idle state.
func New(opts Options) *Controller {
	c := &Controller{
		source:   opts.Source,
		msgs:     opts.Messages,
		listener: opts.Listener,
		logger:   opts.Logger,
	}
	if c.msgs.messages == nil {
		c.msgs = NewCatalog("")
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if c.listener == nil {
		c.listener = func(generation uint64, p *GazePoint) {
			_ = c.DeliverGaze(generation, p)
		}
	}
	c.reset()
	return c
}

func (c *Controller) reset() {
	c.generation++
	c.id = uuid.NewString()
	c.rec = record{state: StateIdle, viewport: c.rec.viewport}
	if !c.rec.viewport.valid() {
		c.rec.viewport = DefaultViewport
	}
}

// State returns the active state.
func (c *Controller) State() State { return c.rec.state }

// Generation identifies the current session. Async work started for a session
// carries its generation so late results can be recognised and dropped.
func (c *Controller) Generation() uint64 { return c.generation }

// Messages returns the catalog used for user-visible strings.
func (c *Controller) Messages() Catalog { return c.msgs }

// NormalizeURL trims the input, defaults the scheme to https and checks that
// the result is an absolute URL with a host.
func NormalizeURL(raw string, msgs Catalog) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &Error{Kind: KindInputValidation, Message: msgs.Text(MsgEmptyURL)}
	}
	if !schemePrefix.MatchString(raw) {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", &Error{Kind: KindInputValidation, Message: msgs.Text(MsgInvalidURL), Err: err}
	}
	if parsed.Host == "" || parsed.Hostname() == "" {
		return "", &Error{Kind: KindInputValidation, Message: msgs.Text(MsgInvalidURL)}
	}
	return parsed.String(), nil
}

// SubmitAPIKey stores the optional analysis key for this session. The key
// lives in memory only.
func (c *Controller) SubmitAPIKey(key string) error {
	if c.rec.state != StateIdle {
		return ErrInvalidTransition
	}
	c.rec.apiKey = strings.TrimSpace(key)
	return nil
}

// SubmitURL validates the target and, when it is usable, moves to
// Initializing and starts acquiring the gaze source. The caller is expected to
// wait for readiness and report back with SourceReady or SourceFailed.
func (c *Controller) SubmitURL(raw string) (string, error) {
	if c.rec.state != StateIdle {
		return "", ErrInvalidTransition
	}
	target, err := NormalizeURL(raw, c.msgs)
	if err != nil {
		c.rec.errorMessage = err.(*Error).Message
		return "", err
	}
	c.generation++
	c.rec.targetURL = target
	c.rec.errorMessage = ""
	c.rec.state = StateInitializing
	if c.source != nil {
		c.source.Start()
		c.rec.sourceStarted = true
	}
	c.logger.Printf("[session] %s initializing for %s (generation=%d)", c.id, target, c.generation)
	c.present()
	return target, nil
}

// SourceReady moves from Initializing to Calibrating.
func (c *Controller) SourceReady(generation uint64) error {
	if generation != c.generation {
		return ErrStaleGeneration
	}
	if c.rec.state != StateInitializing {
		return ErrInvalidTransition
	}
	if c.source != nil {
		generation, forward := c.generation, c.listener
		c.source.SetListener(func(p *GazePoint) { forward(generation, p) })
		c.source.ShowVideoPreview(true)
		c.source.ShowPredictionOverlay(false)
	}
	c.rec.anchors = CalibrationAnchors(c.rec.viewport)
	c.rec.anchorIndex = 0
	c.rec.clicks = 0
	c.rec.state = StateCalibrating
	c.logger.Printf("[session] %s calibrating on %dx%d viewport", c.id, c.rec.viewport.Width, c.rec.viewport.Height)
	c.present()
	return nil
}

// SourceFailed moves from Initializing to Error with a device-access message.
func (c *Controller) SourceFailed(generation uint64, cause error) error {
	if generation != c.generation {
		return ErrStaleGeneration
	}
	if c.rec.state != StateInitializing {
		return ErrInvalidTransition
	}
	failure := &Error{Kind: KindDeviceAccess, Message: c.msgs.Text(MsgCameraUnavailable), Err: cause}
	c.rec.errorMessage = failure.Message
	c.rec.failure = failure
	c.rec.state = StateError
	c.logger.Printf("[session] %s gaze source unavailable: %v", c.id, cause)
	c.present()
	return nil
}

// SetViewport records the page size reported by the companion page. Anchors
// already computed for a running calibration are not recomputed.
func (c *Controller) SetViewport(v Viewport) {
	if !v.valid() {
		return
	}
	c.rec.viewport = v
}

// ClickCalibration records a calibration sample at the current anchor and
// advances the calibration. The twentieth click starts tracking.
func (c *Controller) ClickCalibration() error {
	if c.rec.state != StateCalibrating {
		return ErrInvalidTransition
	}
	if c.source != nil && !c.source.IsReady() {
		return nil
	}
	anchor := c.rec.anchors[c.rec.anchorIndex]
	if c.source != nil {
		c.source.RecordCalibrationSample(Round(anchor.X), Round(anchor.Y), calibrationKind)
	}
	c.rec.clicks++
	if c.rec.clicks >= CalibrationClicks {
		c.beginTracking()
		return nil
	}
	c.rec.anchorIndex = (c.rec.anchorIndex + 1) % len(c.rec.anchors)
	c.present()
	return nil
}

// Calibration samples recorded on the source are kept; only the tracking
// buffer starts empty.
func (c *Controller) beginTracking() {
	if c.source != nil {
		c.source.ShowPredictionOverlay(false)
	}
	c.rec.gaze = nil
	c.rec.state = StateTracking
	c.logger.Printf("[session] %s tracking", c.id)
	c.present()
}

// DeliverGaze applies a sample that was produced for the given session.
// Samples still in flight from a source torn down by Restart are dropped.
func (c *Controller) DeliverGaze(generation uint64, p *GazePoint) error {
	if generation != c.generation {
		return ErrStaleGeneration
	}
	c.OnGaze(p)
	return nil
}

// OnGaze handles a sample from the gaze source. A nil point clears the live
// cursor. Samples are buffered only while tracking. The source is stopped
// while idle, so samples arriving then are ignored.
func (c *Controller) OnGaze(p *GazePoint) {
	if c.rec.state == StateIdle {
		return
	}
	if p == nil {
		c.rec.currentGaze = nil
		return
	}
	point := *p
	c.rec.currentGaze = &point
	if c.rec.state == StateTracking {
		c.rec.gaze = append(c.rec.gaze, point)
	}
}

// ReportEmbeddingBlocked marks the target page as refusing to render inside a
// frame. The session keeps going. reason names the header that forbids
// framing when it is known.
func (c *Controller) ReportEmbeddingBlocked(reason string) error {
	switch c.rec.state {
	case StateIdle, StateError:
		return ErrInvalidTransition
	}
	if c.rec.restriction != nil && (reason == "" || c.rec.restriction.Err != nil) {
		return nil
	}
	restriction := &Error{
		Kind:    KindEmbeddingRestriction,
		Message: c.msgs.Text(MsgEmbeddingBlocked, c.rec.targetURL),
	}
	if reason != "" {
		restriction.Err = errors.New(reason)
	}
	if c.rec.restriction == nil {
		c.logger.Printf("[session] %s target refuses framing", c.id)
	}
	c.rec.restriction = restriction
	return nil
}

// EmbeddingRestriction returns the EmbeddingRestrictionError reported for the
// target, or nil while the page is not known to refuse framing.
func (c *Controller) EmbeddingRestriction() error {
	if c.rec.restriction == nil {
		return nil
	}
	return c.rec.restriction
}

// Failure returns the DeviceAccessError that put the session in the Error
// state, or nil.
func (c *Controller) Failure() error {
	if c.rec.failure == nil {
		return nil
	}
	return c.rec.failure
}

// FinishTracking stops collecting and moves to ViewingResults. When the
// session qualifies for analysis it returns the request to run; otherwise the
// result is already set and the request is nil.
func (c *Controller) FinishTracking() (*AnalysisRequest, error) {
	if c.rec.state != StateTracking {
		return nil, ErrInvalidTransition
	}
	if c.source != nil {
		c.source.Pause()
		c.source.ShowVideoPreview(false)
	}
	c.rec.state = StateViewingResults
	c.logger.Printf("[session] %s finished tracking with %d samples", c.id, len(c.rec.gaze))
	c.present()
	return c.sequenceAnalysis(), nil
}

// Restart tears the source down and returns to a blank Idle session. Results
// of work started before the restart are ignored afterwards.
func (c *Controller) Restart() {
	if c.source != nil && (c.rec.sourceStarted || c.rec.state != StateIdle) {
		c.source.Stop()
	}
	previous := c.id
	c.reset()
	c.logger.Printf("[session] %s restarted as %s", previous, c.id)
	c.present()
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	ID                  string
	Generation          uint64
	State               State
	TargetURL           string
	Gaze                []GazePoint
	CurrentGaze         *GazePoint
	CalibrationClicks   int
	CalibrationProgress int
	Anchors             []GazePoint
	AnchorIndex         int
	AnalysisResult      string
	HasAnalysisResult   bool
	Analyzing           bool
	HasAPIKey           bool
	ErrorMessage        string
	EmbeddingBlocked    bool
	Viewport            Viewport
}

// Anchor returns the anchor the user should click next.
func (s Snapshot) Anchor() (GazePoint, bool) {
	if s.AnchorIndex < 0 || s.AnchorIndex >= len(s.Anchors) {
		return GazePoint{}, false
	}
	return s.Anchors[s.AnchorIndex], true
}

// RemainingClicks is how many calibration clicks are still needed.
func (s Snapshot) RemainingClicks() int {
	if rem := CalibrationClicks - s.CalibrationClicks; rem > 0 {
		return rem
	}
	return 0
}

func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		ID:                  c.id,
		Generation:          c.generation,
		State:               c.rec.state,
		TargetURL:           c.rec.targetURL,
		Gaze:                append([]GazePoint(nil), c.rec.gaze...),
		CalibrationClicks:   c.rec.clicks,
		CalibrationProgress: calibrationProgress(c.rec.clicks),
		Anchors:             append([]GazePoint(nil), c.rec.anchors...),
		AnchorIndex:         c.rec.anchorIndex,
		AnalysisResult:      c.rec.result,
		HasAnalysisResult:   c.rec.hasResult,
		Analyzing:           c.rec.analyzing,
		HasAPIKey:           c.rec.apiKey != "",
		ErrorMessage:        c.rec.errorMessage,
		EmbeddingBlocked:    c.rec.restriction != nil,
		Viewport:            c.rec.viewport,
	}
	if c.rec.currentGaze != nil {
		point := *c.rec.currentGaze
		snap.CurrentGaze = &point
	}
	return snap
}

// GazeCount is the number of buffered tracking samples.
func (c *Controller) GazeCount() int { return len(c.rec.gaze) }

func (c *Controller) present() {
	presenter, ok := c.source.(Presenter)
	if !ok {
		return
	}
	stage := Stage{
		Generation: c.generation,
		State:      c.rec.state.String(),
		TargetURL:  c.rec.targetURL,
		Remaining:  CalibrationClicks - c.rec.clicks,
		Progress:   calibrationProgress(c.rec.clicks),
	}
	if c.rec.state == StateCalibrating && c.rec.anchorIndex < len(c.rec.anchors) {
		anchor := c.rec.anchors[c.rec.anchorIndex]
		stage.Anchor = &anchor
	}
	presenter.Present(stage)
}
