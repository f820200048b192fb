package tui

import (
	"testing"

	"github.com/csheth/gazescout/internal/session"
)

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name           string
		width          int
		height         int
		contentWidth   int
		inputWidth     int
		heatmapRows    int
		analysisHeight int
	}{
		{name: "narrow", width: 80, height: 24, contentWidth: 76, inputWidth: 72, heatmapRows: 8, analysisHeight: 6},
		{name: "wide", width: 200, height: 50, contentWidth: 196, inputWidth: 72, heatmapRows: 24, analysisHeight: 16},
		{name: "tiny", width: 30, height: 10, contentWidth: 40, inputWidth: 36, heatmapRows: 7, analysisHeight: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height)
			if layout.contentWidth != tc.contentWidth {
				t.Fatalf("content width mismatch: got %d want %d", layout.contentWidth, tc.contentWidth)
			}
			if layout.inputWidth != tc.inputWidth {
				t.Fatalf("input width mismatch: got %d want %d", layout.inputWidth, tc.inputWidth)
			}
			if layout.heatmapRows != tc.heatmapRows {
				t.Fatalf("heatmap rows mismatch: got %d want %d", layout.heatmapRows, tc.heatmapRows)
			}
			if layout.analysisHeight != tc.analysisHeight {
				t.Fatalf("analysis height mismatch: got %d want %d", layout.analysisHeight, tc.analysisHeight)
			}
		})
	}
}

func TestHeatmapSizeKeepsAspect(t *testing.T) {
	cases := []struct {
		name       string
		width      int
		height     int
		page       session.Viewport
		cols, rows int
	}{
		{name: "height bound", width: 80, height: 24, page: session.Viewport{Width: 1280, Height: 720}, cols: 28, rows: 8},
		{name: "wide window", width: 200, height: 50, page: session.Viewport{Width: 1280, Height: 720}, cols: 85, rows: 24},
		{name: "width bound", width: 80, height: 60, page: session.Viewport{Width: 1600, Height: 400}, cols: 76, rows: 10},
		{name: "unknown page", width: 80, height: 24, page: session.Viewport{}, cols: 76, rows: 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height)
			cols, rows := layout.heatmapSize(tc.page)
			if cols != tc.cols || rows != tc.rows {
				t.Fatalf("heatmap size mismatch: got %dx%d want %dx%d", cols, rows, tc.cols, tc.rows)
			}
		})
	}
}
