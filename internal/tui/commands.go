package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/gazescout/internal/gaze"
	"github.com/csheth/gazescout/internal/probe"
	"github.com/csheth/gazescout/internal/session"
)

// Prober reports whether a target page refuses to be framed.
type Prober interface {
	Check(ctx context.Context, target string) (probe.Result, error)
}

func waitReadyJob(source gaze.ReadinessProbe, generation uint64, interval, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		err := gaze.WaitReady(parent, source, interval, timeout)
		return readyResultMsg{generation: generation, err: err}, err
	}
}

func analysisJob(analyzer session.Analyzer, req *session.AnalysisRequest, msgs session.Catalog, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx := parent
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, timeout)
			defer cancel()
		}
		out := session.RunAnalysis(ctx, analyzer, req, msgs)
		return analysisResultMsg{outcome: out}, out.Err
	}
}

func probeJob(prober Prober, generation uint64, target string, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx := parent
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, timeout)
			defer cancel()
		}
		result, err := prober.Check(ctx, target)
		return probeResultMsg{generation: generation, result: result, err: err}, err
	}
}

// alwaysReady stands in for a missing source.
type alwaysReady struct{}

func (alwaysReady) IsReady() bool { return true }
