package heatmap

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/csheth/gazescout/internal/session"
)

// Container is the terminal area a heatmap is drawn into and the page size
// its points are expressed in.
type Container struct {
	Cols int
	Rows int
	Page session.Viewport
}

// Terminal draws a dataset as coloured background cells.
type Terminal struct {
	container Container
	cfg       Config
	grad      gradient
	base      colorful.Color
	cells     [][]float64
}

var terminalBase, _ = colorful.Hex("#1c1c1c")

// CreateTerminal builds a terminal renderer. An invalid config falls back to
// DefaultConfig.
func CreateTerminal(container Container, cfg Config) *Terminal {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}
	grad, err := newGradient(cfg.Gradient)
	if err != nil {
		cfg = DefaultConfig()
		grad, _ = newGradient(cfg.Gradient)
	}
	if container.Cols < 1 {
		container.Cols = 1
	}
	if container.Rows < 1 {
		container.Rows = 1
	}
	if container.Page.Width <= 0 || container.Page.Height <= 0 {
		container.Page = session.DefaultViewport
	}
	t := &Terminal{container: container, cfg: cfg, grad: grad, base: terminalBase}
	t.clear()
	return t
}

func (t *Terminal) clear() {
	t.cells = make([][]float64, t.container.Rows)
	for r := range t.cells {
		t.cells[r] = make([]float64, t.container.Cols)
	}
}

// Resize changes the cell grid and redraws data on the next SetData.
func (t *Terminal) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	t.container.Cols = cols
	t.container.Rows = rows
	t.clear()
}

// SetData replaces the plotted dataset. Each point spreads a radial kernel
// over the cells within Radius page pixels; the accumulated density is
// normalised against Data.Max.
func (t *Terminal) SetData(data Data) error {
	t.clear()
	peak := float64(data.Max)
	if peak <= 0 {
		peak = 1
	}
	cols, rows := t.container.Cols, t.container.Rows
	sx := float64(cols) / float64(t.container.Page.Width)
	sy := float64(rows) / float64(t.container.Page.Height)
	rx := math.Max(float64(t.cfg.Radius)*sx, 0.5)
	ry := math.Max(float64(t.cfg.Radius)*sy, 0.5)
	solid := 1 - t.cfg.Blur

	for _, p := range data.Points {
		cx := float64(p.X) * sx
		cy := float64(p.Y) * sy
		c0 := int(math.Floor(cx - rx))
		c1 := int(math.Ceil(cx + rx))
		r0 := int(math.Floor(cy - ry))
		r1 := int(math.Ceil(cy + ry))
		for r := max0(r0); r <= r1 && r < rows; r++ {
			for c := max0(c0); c <= c1 && c < cols; c++ {
				dx := (float64(c) + 0.5 - cx) / rx
				dy := (float64(r) + 0.5 - cy) / ry
				d := math.Hypot(dx, dy)
				if d >= 1 {
					continue
				}
				w := 1.0
				if d > solid && t.cfg.Blur > 0 {
					w = (1 - d) / t.cfg.Blur
				}
				t.cells[r][c] += w * float64(p.Value)
			}
		}
	}
	for r := range t.cells {
		for c := range t.cells[r] {
			t.cells[r][c] = math.Min(t.cells[r][c]/peak, 1)
		}
	}
	return nil
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// Cell returns the normalised intensity of a cell, 0 when out of range.
func (t *Terminal) Cell(col, row int) float64 {
	if row < 0 || row >= len(t.cells) || col < 0 || col >= len(t.cells[row]) {
		return 0
	}
	return t.cells[row][col]
}

// Hottest returns the cell with the highest intensity. ok is false for an
// empty plot.
func (t *Terminal) Hottest() (col, row int, ok bool) {
	best := 0.0
	for r := range t.cells {
		for c, v := range t.cells[r] {
			if v > best {
				best, col, row, ok = v, c, r, true
			}
		}
	}
	return col, row, ok
}

// View renders the grid, one terminal line per row.
func (t *Terminal) View() string {
	var b strings.Builder
	for r, row := range t.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			if v <= 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(t.colorFor(v))).Render(" "))
		}
	}
	return b.String()
}

// colorFor blends the gradient colour over the terminal background with an
// opacity clamped to the configured range.
func (t *Terminal) colorFor(v float64) string {
	alpha := t.cfg.MinOpacity + (t.cfg.MaxOpacity-t.cfg.MinOpacity)*v
	if t.cfg.MaxOpacity > 0 {
		alpha /= t.cfg.MaxOpacity
	}
	return t.base.BlendRgb(t.grad.at(v), alpha).Clamped().Hex()
}
