package tui

import (
	"testing"

	"github.com/csheth/gazescout/internal/gaze"
	"github.com/csheth/gazescout/internal/session"
)

func TestDispatcherDropsUntilAttached(t *testing.T) {
	d := NewDispatcher()
	d.Gaze(1, &session.GazePoint{X: 1, Y: 2})
	d.Event(gaze.Event{Kind: gaze.EventReady})
	if d.Dropped() != 2 {
		t.Fatalf("expected 2 dropped messages, got %d", d.Dropped())
	}

	rec := &recordingSender{}
	d.Attach(rec)
	point := &session.GazePoint{X: 3, Y: 4}
	d.Gaze(7, point)
	d.Gaze(7, nil)
	d.Event(gaze.Event{Kind: gaze.EventViewport, Width: 800, Height: 600})
	point.X = 99

	msgs := rec.messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	first, ok := msgs[0].(gazeMsg)
	if !ok || first.point == nil || first.point.X != 3 || first.generation != 7 {
		t.Fatalf("gaze sample not copied: %#v", msgs[0])
	}
	if second := msgs[1].(gazeMsg); second.point != nil {
		t.Fatalf("nil sample should stay nil")
	}
	if ev := msgs[2].(bridgeEventMsg).event; ev.Kind != gaze.EventViewport || ev.Width != 800 {
		t.Fatalf("unexpected event %#v", ev)
	}
}

func TestDispatcherFeedsModel(t *testing.T) {
	d := NewDispatcher()
	rec := &recordingSender{}
	d.Attach(rec)
	m, src := newTestModel(t, Config{Dispatcher: d})
	startSession(t, m, "")
	calibrate(m)

	// the bridge calls the listener installed by SourceReady
	src.listener(&session.GazePoint{X: 10, Y: 20})
	if m.controller.GazeCount() != 0 {
		t.Fatal("samples must not reach the controller off the update loop")
	}
	for _, msg := range rec.messages() {
		m.Update(msg)
	}
	if m.controller.GazeCount() != 1 {
		t.Fatalf("expected the forwarded sample to be buffered, got %d", m.controller.GazeCount())
	}
}
