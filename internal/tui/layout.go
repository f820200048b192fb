package tui

import (
	"math"
	"strings"

	"github.com/csheth/gazescout/internal/session"
)

const (
	maxInputWidth = 72
	layoutChrome  = 10
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	contentWidth   int
	inputWidth     int
	heatmapRows    int
	analysisHeight int
}

func newPageLayout() pageLayout {
	l := pageLayout{}
	l.Update(80, 24)
	return l
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	inner := width - viewportHorizontalPadding
	if inner < minViewportWidth {
		inner = minViewportWidth
	}
	l.contentWidth = inner
	l.inputWidth = inner - 4
	if l.inputWidth > maxInputWidth {
		l.inputWidth = maxInputWidth
	}
	usable := height - layoutChrome
	if usable < 12 {
		usable = 12
	}
	l.heatmapRows = usable * 3 / 5
	l.analysisHeight = usable - l.heatmapRows
	if l.analysisHeight < 4 {
		l.analysisHeight = 4
	}
}

// heatmapSize fits the page aspect ratio into the heatmap area. Terminal cells
// are about twice as tall as they are wide.
func (l pageLayout) heatmapSize(page session.Viewport) (int, int) {
	cols := l.contentWidth
	if page.Width <= 0 || page.Height <= 0 {
		return cols, l.heatmapRows
	}
	ratio := float64(page.Height) / float64(page.Width)
	rows := int(math.Round(float64(cols) * ratio / 2))
	if rows > l.heatmapRows {
		rows = l.heatmapRows
		cols = int(math.Round(float64(rows) * 2 / ratio))
	}
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return cols, rows
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
