package tui

import (
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/gazescout/internal/gaze"
	"github.com/csheth/gazescout/internal/heatmap"
	"github.com/csheth/gazescout/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	// Source drives the gaze engine. It is usually the bridge.
	Source session.GazeSource
	// Publisher, when set, also receives the results heatmap so the companion
	// page can draw it over the target.
	Publisher heatmap.Publisher
	Analyzer  session.Analyzer
	// Prober checks framing headers up front. Nil disables the check.
	Prober Prober
	// Dispatcher forwards gaze samples through the program instead of
	// handing them to the controller on the bridge goroutine.
	Dispatcher *Dispatcher
	Messages   session.Catalog
	// CompanionURL is shown while waiting for the camera.
	CompanionURL    string
	ReadyTimeout    time.Duration
	ReadyInterval   time.Duration
	AnalysisTimeout time.Duration
	ProbeTimeout    time.Duration
	Logger          *log.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	return newModel(config)
}

func newModel(config Config) *model {
	if config.ReadyTimeout <= 0 {
		config.ReadyTimeout = gaze.DefaultReadyTimeout
	}
	if config.ReadyInterval <= 0 {
		config.ReadyInterval = gaze.DefaultReadyInterval
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	opts := session.Options{
		Source:   config.Source,
		Messages: config.Messages,
		Logger:   config.Logger,
	}
	if config.Dispatcher != nil {
		opts.Listener = config.Dispatcher.Gaze
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com"
	urlInput.Prompt = "URL › "
	urlInput.CharLimit = 2048
	urlInput.Focus()

	keyInput := textinput.New()
	keyInput.Placeholder = "optional, kept in memory only"
	keyInput.Prompt = "Key › "
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.EchoCharacter = '•'
	keyInput.CharLimit = 256

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	bar := progress.New(progress.WithDefaultGradient())

	vp := viewport.New(80, 8)
	vp.MouseWheelEnabled = true

	m := &model{
		config:      config,
		controller:  session.New(opts),
		jobs:        newJobBus(),
		urlInput:    urlInput,
		keyInput:    keyInput,
		focus:       focusURL,
		spinner:     spin,
		progress:    bar,
		analysis:    vp,
		layout:      newPageLayout(),
		running:     map[jobKind]int{},
		infoMessage: "Enter the page you want to study.",
	}
	m.applyLayout()
	return m
}

type model struct {
	config     Config
	controller *session.Controller
	jobs       *jobBus

	urlInput textinput.Model
	keyInput textinput.Model
	focus    inputFocus
	spinner  spinner.Model
	progress progress.Model
	analysis viewport.Model
	layout   pageLayout

	heat     *heatmap.Terminal
	heatData heatmap.Data

	running       map[jobKind]int
	pageConnected bool
	infoMessage   string
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.applyLayout()
		return m, nil
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.controller.State() == session.StateViewingResults {
			var cmd tea.Cmd
			m.analysis, cmd = m.analysis.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.running[msg.Snapshot.Kind]++
		return m, nil
	case jobResultEnvelope:
		if m.running[msg.Snapshot.Kind] > 0 {
			m.running[msg.Snapshot.Kind]--
		}
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case readyResultMsg:
		m.handleReady(msg)
		return m, nil
	case analysisResultMsg:
		if err := m.controller.ApplyAnalysis(msg.outcome); err != nil {
			log.Printf("[tui] analysis result ignored: %v", err)
			return m, nil
		}
		m.refreshAnalysis()
		return m, nil
	case probeResultMsg:
		m.handleProbe(msg)
		return m, nil
	case gazeMsg:
		_ = m.controller.DeliverGaze(msg.generation, msg.point)
		return m, nil
	case bridgeEventMsg:
		return m.handleBridgeEvent(msg.event)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.controller.State()
	switch key.Type {
	case tea.KeyCtrlC:
		if state != session.StateIdle {
			m.controller.Restart()
		}
		return m, tea.Quit
	case tea.KeyCtrlR:
		if state != session.StateIdle {
			m.restart()
		}
		return m, nil
	}

	switch state {
	case session.StateIdle:
		return m.handleIdleKey(key)
	case session.StateCalibrating:
		if key.Type == tea.KeySpace || key.Type == tea.KeyEnter {
			m.clickCalibration()
		}
		return m, nil
	case session.StateTracking:
		if key.Type == tea.KeyEnter {
			return m, m.finishTracking()
		}
		return m, nil
	case session.StateViewingResults:
		var cmd tea.Cmd
		m.analysis, cmd = m.analysis.Update(key)
		return m, cmd
	case session.StateError:
		if key.Type == tea.KeyEnter {
			m.restart()
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *model) handleIdleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyTab, tea.KeyShiftTab:
		m.toggleFocus()
		return m, nil
	case tea.KeyEnter:
		return m, m.submit()
	}
	var cmd tea.Cmd
	if m.focus == focusAPIKey {
		m.keyInput, cmd = m.keyInput.Update(key)
	} else {
		m.urlInput, cmd = m.urlInput.Update(key)
	}
	return m, cmd
}

func (m *model) toggleFocus() {
	if m.focus == focusURL {
		m.focus = focusAPIKey
		m.urlInput.Blur()
		m.keyInput.Focus()
		return
	}
	m.focus = focusURL
	m.keyInput.Blur()
	m.urlInput.Focus()
}

// submit hands the form to the controller and, on success, starts waiting for
// the camera and probing the target.
func (m *model) submit() tea.Cmd {
	if err := m.controller.SubmitAPIKey(m.keyInput.Value()); err != nil {
		return nil
	}
	target, err := m.controller.SubmitURL(m.urlInput.Value())
	if err != nil {
		m.infoMessage = ""
		return nil
	}
	m.keyInput.SetValue("")
	m.infoMessage = "Waiting for the camera…"

	generation := m.controller.Generation()
	var ready gaze.ReadinessProbe = alwaysReady{}
	if m.config.Source != nil {
		ready = m.config.Source
	}
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.jobs.Start(jobKindReady, generation, waitReadyJob(ready, generation, m.config.ReadyInterval, m.config.ReadyTimeout)),
	}
	if m.config.Prober != nil {
		cmds = append(cmds, m.jobs.Start(jobKindProbe, generation, probeJob(m.config.Prober, generation, target, m.config.ProbeTimeout)))
	}
	return tea.Batch(cmds...)
}

func (m *model) handleReady(msg readyResultMsg) {
	var err error
	if msg.err == nil {
		err = m.controller.SourceReady(msg.generation)
	} else {
		err = m.controller.SourceFailed(msg.generation, msg.err)
	}
	if err != nil {
		log.Printf("[tui] readiness result for generation %d ignored: %v", msg.generation, err)
		return
	}
	if msg.err == nil {
		m.infoMessage = "Look at each dot and click it in the browser, or press space here."
	} else {
		m.infoMessage = ""
	}
}

func (m *model) handleProbe(msg probeResultMsg) {
	if msg.generation != m.controller.Generation() {
		return
	}
	if msg.err != nil {
		// unknown is not blocked; the page can still report it later
		log.Printf("[tui] framing probe failed: %v", msg.err)
		return
	}
	if !msg.result.Blocked {
		return
	}
	_ = m.controller.ReportEmbeddingBlocked(msg.result.Reason)
}

func (m *model) handleBridgeEvent(ev gaze.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case gaze.EventConnected:
		m.pageConnected = true
	case gaze.EventDisconnected:
		m.pageConnected = false
	case gaze.EventReady:
		if m.controller.State() == session.StateInitializing {
			m.infoMessage = "Camera is running."
		}
	case gaze.EventCameraError:
		log.Printf("[tui] camera error reported by page: %v", ev.Err)
	case gaze.EventViewport:
		m.controller.SetViewport(session.Viewport{Width: ev.Width, Height: ev.Height})
	case gaze.EventCalibrationClick:
		m.clickCalibration()
	case gaze.EventFrameBlocked:
		snap := m.controller.Snapshot()
		if ev.URL != "" && ev.URL != snap.TargetURL {
			return m, nil
		}
		_ = m.controller.ReportEmbeddingBlocked("")
	}
	return m, nil
}

func (m *model) clickCalibration() {
	if err := m.controller.ClickCalibration(); err != nil {
		return
	}
	if m.controller.State() == session.StateTracking {
		m.infoMessage = "Tracking. Browse the page, then press enter here to finish."
	}
}

func (m *model) finishTracking() tea.Cmd {
	req, err := m.controller.FinishTracking()
	if err != nil {
		return nil
	}
	m.infoMessage = ""
	m.buildHeatmap()
	m.refreshAnalysis()
	if req == nil {
		return nil
	}
	generation := req.Generation
	return tea.Batch(
		m.spinner.Tick,
		m.jobs.Start(jobKindAnalysis, generation, analysisJob(m.config.Analyzer, req, m.controller.Messages(), m.config.AnalysisTimeout)),
	)
}

func (m *model) buildHeatmap() {
	snap := m.controller.Snapshot()
	m.heatData = heatmap.FromGaze(snap.Gaze)
	cols, rows := m.layout.heatmapSize(snap.Viewport)
	m.heat = heatmap.CreateTerminal(heatmap.Container{Cols: cols, Rows: rows, Page: snap.Viewport}, heatmap.DefaultConfig())
	if err := m.heat.SetData(m.heatData); err != nil {
		log.Printf("[tui] heatmap: %v", err)
	}

	if m.config.Publisher == nil {
		return
	}
	remote, err := heatmap.CreateRemote(m.config.Publisher, heatmapContainer, heatmap.DefaultConfig())
	if err != nil {
		log.Printf("[tui] remote heatmap: %v", err)
		return
	}
	if err := remote.SetData(m.heatData); err != nil {
		log.Printf("[tui] remote heatmap: %v", err)
	}
}

func (m *model) refreshAnalysis() {
	snap := m.controller.Snapshot()
	if !snap.HasAnalysisResult {
		m.analysis.SetContent("")
		return
	}
	m.analysis.SetContent(wordwrap.String(strings.TrimSpace(snap.AnalysisResult), m.analysis.Width))
	m.analysis.GotoTop()
}

func (m *model) applyLayout() {
	m.urlInput.Width = m.layout.inputWidth
	m.keyInput.Width = m.layout.inputWidth
	m.progress.Width = m.layout.inputWidth
	m.analysis.Width = m.layout.contentWidth
	m.analysis.Height = m.layout.analysisHeight
	if m.heat != nil {
		cols, rows := m.layout.heatmapSize(m.controller.Snapshot().Viewport)
		m.heat.Resize(cols, rows)
		if err := m.heat.SetData(m.heatData); err != nil {
			log.Printf("[tui] heatmap: %v", err)
		}
	}
	if m.controller.Snapshot().HasAnalysisResult {
		m.refreshAnalysis()
	}
}

func (m *model) restart() {
	m.controller.Restart()
	m.urlInput.SetValue("")
	m.keyInput.SetValue("")
	m.focus = focusAPIKey
	m.toggleFocus()
	m.heat = nil
	m.heatData = heatmap.Data{}
	m.analysis.SetContent("")
	m.infoMessage = "Ready for another page."
}

func (m *model) busy() bool {
	snap := m.controller.Snapshot()
	return snap.State == session.StateInitializing || snap.Analyzing
}

