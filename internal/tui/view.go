package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/gazescout/internal/session"
)

func (m *model) View() string {
	snap := m.controller.Snapshot()
	var body string
	switch snap.State {
	case session.StateIdle:
		body = m.viewIdle(snap)
	case session.StateInitializing:
		body = m.viewInitializing(snap)
	case session.StateCalibrating:
		body = m.viewCalibrating(snap)
	case session.StateTracking:
		body = m.viewTracking(snap)
	case session.StateViewingResults:
		body = m.viewResults(snap)
	case session.StateError:
		body = m.viewError(snap)
	}
	parts := []string{m.heroView(), body}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, m.statusBarView(snap), m.keyLegendView(snap.State))
	return joinNonEmpty(parts)
}

func (m *model) viewIdle(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Page to study"))
	b.WriteRune('\n')
	b.WriteString(m.urlInput.View())
	b.WriteString("\n\n")
	b.WriteString(sectionHeaderStyle.Render("Groq API key"))
	b.WriteRune('\n')
	b.WriteString(m.keyInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Leave the key empty to skip the UX analysis. It is never written to disk."))
	if snap.ErrorMessage != "" {
		b.WriteRune('\n')
		b.WriteString(errorStyle.Render(snap.ErrorMessage))
	}
	return b.String()
}

func (m *model) viewInitializing(snap session.Snapshot) string {
	lines := []string{
		fmt.Sprintf("%s Starting the camera for %s", m.spinner.View(), valueStyle.Render(snap.TargetURL)),
	}
	if m.config.CompanionURL != "" {
		lines = append(lines, helperStyle.Render("Open "+m.config.CompanionURL+" in a browser and allow camera access."))
	} else {
		lines = append(lines, helperStyle.Render("Allow camera access in the browser."))
	}
	if !m.pageConnected && m.config.Source != nil {
		lines = append(lines, helperStyle.Render("Waiting for the companion page to connect…"))
	}
	if note := m.framingNotice(snap); note != "" {
		lines = append(lines, note)
	}
	return strings.Join(lines, "\n")
}

func (m *model) viewCalibrating(snap session.Snapshot) string {
	lines := []string{
		sectionHeaderStyle.Render("Calibration"),
		m.progress.ViewAs(float64(snap.CalibrationProgress) / 100),
		fmt.Sprintf("%s clicks remaining", valueStyle.Render(fmt.Sprint(snap.RemainingClicks()))),
	}
	if anchor, ok := snap.Anchor(); ok {
		lines = append(lines, helperStyle.Render(fmt.Sprintf(
			"Next dot at (%d, %d) on a %dx%d page.",
			session.Round(anchor.X), session.Round(anchor.Y), snap.Viewport.Width, snap.Viewport.Height,
		)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) viewTracking(snap session.Snapshot) string {
	gazeLine := helperStyle.Render("no gaze estimate")
	if p := snap.CurrentGaze; p != nil {
		gazeLine = valueStyle.Render(fmt.Sprintf("(%d, %d)", session.Round(p.X), session.Round(p.Y)))
	}
	rows := []string{
		sectionHeaderStyle.Render("Tracking"),
		"Target   " + valueStyle.Render(snap.TargetURL),
		"Gaze     " + gazeLine,
		"Samples  " + valueStyle.Render(fmt.Sprint(len(snap.Gaze))),
	}
	if note := m.framingNotice(snap); note != "" {
		rows = append(rows, note)
	}
	return strings.Join(rows, "\n")
}

func (m *model) viewResults(snap session.Snapshot) string {
	var sections []string

	heat := []string{sectionHeaderStyle.Render(fmt.Sprintf("Heatmap (%d samples)", len(snap.Gaze)))}
	if m.heat != nil {
		heat = append(heat, panelStyle.Render(m.heat.View()))
	}
	sections = append(sections, strings.Join(heat, "\n"))

	analysis := []string{sectionHeaderStyle.Render("UX analysis")}
	switch {
	case snap.Analyzing:
		analysis = append(analysis, fmt.Sprintf("%s Analyzing gaze data…", m.spinner.View()))
	case snap.HasAnalysisResult:
		analysis = append(analysis, m.analysis.View())
	}
	sections = append(sections, strings.Join(analysis, "\n"))

	if note := m.framingNotice(snap); note != "" {
		sections = append(sections, note)
	}
	return joinNonEmpty(sections)
}

func (m *model) viewError(snap session.Snapshot) string {
	return joinNonEmpty([]string{
		errorStyle.Render(snap.ErrorMessage),
		helperStyle.Render("Press ctrl+r or enter to try again."),
	})
}

func (m *model) framingNotice(snap session.Snapshot) string {
	var restriction *session.Error
	if !snap.EmbeddingBlocked || !errors.As(m.controller.EmbeddingRestriction(), &restriction) {
		return ""
	}
	text := restriction.Message
	if restriction.Err != nil {
		text += "\n" + indentMultiline(restriction.Err.Error(), "  ")
	}
	return errorStyle.Render(text)
}

func (m *model) heroView() string {
	tagline := taglineStyle.Render(heroTagline)
	if m.layout.windowWidth > 0 && m.layout.windowWidth < logoWidth()+2 {
		return lipgloss.JoinVertical(lipgloss.Left, heroTitleStyle.Render("GAZESCOUT"), tagline)
	}
	return lipgloss.JoinVertical(lipgloss.Left, renderLogo(), tagline)
}

func (m *model) statusBarView(snap session.Snapshot) string {
	page := "page waiting"
	if m.pageConnected {
		page = "page connected"
	}
	stats := []string{
		"State " + snap.State.String(),
		page,
	}
	if len(snap.ID) >= 8 {
		stats = append(stats, "Session "+snap.ID[:8])
	}
	if snap.HasAPIKey {
		stats = append(stats, "analysis on")
	}
	if n := m.runningJobs(); n > 0 {
		stats = append(stats, fmt.Sprintf("Jobs %d", n))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) runningJobs() int {
	total := 0
	for _, n := range m.running {
		total += n
	}
	return total
}

type keyHint struct {
	Key         string
	Description string
}

func keyHints(state session.State) []keyHint {
	switch state {
	case session.StateIdle:
		return []keyHint{{"enter", "Start session"}, {"tab", "Switch field"}, {"ctrl+c", "Quit"}}
	case session.StateInitializing:
		return []keyHint{{"ctrl+r", "Restart"}, {"ctrl+c", "Quit"}}
	case session.StateCalibrating:
		return []keyHint{{"space", "Record click"}, {"ctrl+r", "Restart"}, {"ctrl+c", "Quit"}}
	case session.StateTracking:
		return []keyHint{{"enter", "Finish tracking"}, {"ctrl+r", "Restart"}, {"ctrl+c", "Quit"}}
	case session.StateViewingResults:
		return []keyHint{{"↑/↓", "Scroll analysis"}, {"ctrl+r", "New session"}, {"ctrl+c", "Quit"}}
	case session.StateError:
		return []keyHint{{"enter", "Try again"}, {"ctrl+c", "Quit"}}
	default:
		return nil
	}
}

func (m *model) keyLegendView(state session.State) string {
	hints := keyHints(state)
	if len(hints) == 0 {
		return ""
	}
	var cells []string
	for _, hint := range hints {
		key := keyStyle.Render(hint.Key)
		desc := keyDescStyle.Render(" " + hint.Description + "  ")
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
	}
	return legendBoxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}
