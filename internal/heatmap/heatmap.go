// Package heatmap turns buffered gaze points into density plots. The terminal
// renderer draws into a cell grid; the remote renderer hands the same data to
// heatmap.js running in the companion page.
package heatmap

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/csheth/gazescout/internal/session"
)

// GradientStop maps a normalised intensity to a colour.
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Config mirrors the heatmap.js options the tool uses.
type Config struct {
	Radius     int            `json:"radius"`
	MinOpacity float64        `json:"minOpacity"`
	MaxOpacity float64        `json:"maxOpacity"`
	Blur       float64        `json:"blur"`
	Gradient   []GradientStop `json:"gradient"`
}

// DefaultConfig is the blue to red palette used for gaze density.
func DefaultConfig() Config {
	return Config{
		Radius:     40,
		MinOpacity: 0.1,
		MaxOpacity: 0.6,
		Blur:       0.75,
		Gradient: []GradientStop{
			{Offset: 0.1, Color: "#0000ff"},
			{Offset: 0.5, Color: "#00ff00"},
			{Offset: 0.8, Color: "#ffff00"},
			{Offset: 0.95, Color: "#ff0000"},
		},
	}
}

// Validate checks the config can be rendered.
func (c Config) Validate() error {
	if c.Radius <= 0 {
		return fmt.Errorf("heatmap radius must be positive, got %d", c.Radius)
	}
	if c.MinOpacity < 0 || c.MaxOpacity > 1 || c.MinOpacity > c.MaxOpacity {
		return fmt.Errorf("heatmap opacity range [%g, %g] is invalid", c.MinOpacity, c.MaxOpacity)
	}
	if c.Blur < 0 || c.Blur > 1 {
		return fmt.Errorf("heatmap blur must be within [0, 1], got %g", c.Blur)
	}
	if len(c.Gradient) == 0 {
		return fmt.Errorf("heatmap gradient is empty")
	}
	for _, stop := range c.Gradient {
		if _, err := colorful.Hex(stop.Color); err != nil {
			return fmt.Errorf("heatmap gradient colour %q: %w", stop.Color, err)
		}
	}
	return nil
}

// Point is a weighted sample in page pixels.
type Point struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Value int `json:"value"`
}

// Data is the dataset handed to a renderer. Max is the value that maps to the
// hottest gradient colour.
type Data struct {
	Max    int     `json:"max"`
	Points []Point `json:"data"`
}

const gazeMax = 5

// FromGaze weights every gaze sample equally.
func FromGaze(points []session.GazePoint) Data {
	data := Data{Max: gazeMax, Points: make([]Point, 0, len(points))}
	for _, p := range points {
		data.Points = append(data.Points, Point{X: session.Round(p.X), Y: session.Round(p.Y), Value: 1})
	}
	return data
}

// Renderer receives datasets to draw.
type Renderer interface {
	SetData(Data) error
}

type gradient struct {
	offsets []float64
	colors  []colorful.Color
}

func newGradient(stops []GradientStop) (gradient, error) {
	sorted := append([]GradientStop(nil), stops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	g := gradient{}
	for _, stop := range sorted {
		c, err := colorful.Hex(stop.Color)
		if err != nil {
			return gradient{}, fmt.Errorf("parse gradient colour %q: %w", stop.Color, err)
		}
		g.offsets = append(g.offsets, stop.Offset)
		g.colors = append(g.colors, c)
	}
	return g, nil
}

// at returns the colour for an intensity in [0, 1].
func (g gradient) at(v float64) colorful.Color {
	if len(g.colors) == 0 {
		return colorful.Color{}
	}
	if v <= g.offsets[0] {
		return g.colors[0]
	}
	last := len(g.offsets) - 1
	if v >= g.offsets[last] {
		return g.colors[last]
	}
	for i := 1; i <= last; i++ {
		if v == g.offsets[i] {
			return g.colors[i]
		}
		if v < g.offsets[i] {
			span := g.offsets[i] - g.offsets[i-1]
			t := 0.0
			if span > 0 {
				t = (v - g.offsets[i-1]) / span
			}
			return g.colors[i-1].BlendLab(g.colors[i], t).Clamped()
		}
	}
	return g.colors[last]
}
