package tuitest

import "testing"

func TestParseFramesSplitsOnClear(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[H\x1b[1mGAZESCOUT\x1b[0m   \r\nPage to study\x1b[J\x1b[HCalibration\r\n\r\n")
	rec := &Recording{Raw: raw, Frames: parseFrames(raw)}

	if len(rec.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %#v", len(rec.Frames), rec.Frames)
	}
	if rec.Frames[0].Plain != "GAZESCOUT\nPage to study" {
		t.Fatalf("unexpected first frame %q", rec.Frames[0].Plain)
	}
	last, ok := rec.FinalFrame()
	if !ok || last.Plain != "Calibration" {
		t.Fatalf("unexpected final frame %q", last.Plain)
	}
	if !rec.Contains("Page to study") {
		t.Fatal("Contains should search every frame")
	}
	if frame, ok := rec.FrameContaining("Calibration"); !ok || frame.Index != 1 {
		t.Fatalf("FrameContaining picked frame %d", frame.Index)
	}
	if rec.Contains("Tracking") {
		t.Fatal("unexpected match")
	}
}

func TestScreenBufferContainsIgnoresEscapes(t *testing.T) {
	var out screenBuffer
	_, _ = out.Write([]byte("\x1b[38;5;9mPlease enter\x1b[0m a URL.\r\n"))
	if !out.contains("Please enter a URL.") {
		t.Fatal("expected escape codes to be stripped before matching")
	}
}
