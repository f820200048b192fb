package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/gazescout/internal/gaze"
	"github.com/csheth/gazescout/internal/session"
)

// Sender is the part of *tea.Program the dispatcher needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Dispatcher moves bridge callbacks onto the update loop so the session is
// only ever touched from one goroutine. Messages sent before a program is
// attached are dropped.
type Dispatcher struct {
	mu      sync.RWMutex
	target  Sender
	dropped atomic.Int64
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Attach starts delivery to p.
func (d *Dispatcher) Attach(p Sender) {
	d.mu.Lock()
	d.target = p
	d.mu.Unlock()
}

func (d *Dispatcher) send(msg tea.Msg) bool {
	d.mu.RLock()
	target := d.target
	d.mu.RUnlock()
	if target == nil {
		d.dropped.Add(1)
		return false
	}
	target.Send(msg)
	return true
}

// Gaze is a listener suitable for session.Options.Listener.
func (d *Dispatcher) Gaze(generation uint64, point *session.GazePoint) {
	if point != nil {
		copied := *point
		point = &copied
	}
	d.send(gazeMsg{generation: generation, point: point})
}

// Event is a callback suitable for Bridge.OnEvent.
func (d *Dispatcher) Event(ev gaze.Event) {
	d.send(bridgeEventMsg{event: ev})
}

// Dropped counts messages that arrived before Attach.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}
