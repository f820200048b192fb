package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/csheth/gazescout/internal/llm"
)

// Analyzer produces a usability critique for a prompt.
type Analyzer interface {
	Analyze(ctx context.Context, apiKey, prompt string) (string, error)
}

// AnalysisRequest is the single analysis call a finished session may make.
type AnalysisRequest struct {
	Generation uint64
	APIKey     string
	Prompt     string
	Points     []llm.GazeSample
}

// AnalysisOutcome is the resolved analysis text for a request. Err keeps the
// upstream failure for logging; Text is already the user-facing result.
type AnalysisOutcome struct {
	Generation uint64
	Text       string
	Err        error
}

// SummarizeGaze keeps the first limit points and rounds them to whole pixels.
func SummarizeGaze(points []GazePoint, limit int) []llm.GazeSample {
	if limit >= 0 && len(points) > limit {
		points = points[:limit]
	}
	samples := make([]llm.GazeSample, 0, len(points))
	for _, p := range points {
		samples = append(samples, llm.GazeSample{X: Round(p.X), Y: Round(p.Y)})
	}
	return samples
}

// sequenceAnalysis runs the decision table on the way into ViewingResults.
func (c *Controller) sequenceAnalysis() *AnalysisRequest {
	if c.rec.apiKey == "" {
		c.setResult(c.msgs.Text(MsgAnalysisSkipped))
		return nil
	}
	if len(c.rec.gaze) < MinAnalysisPoints {
		c.setResult(c.msgs.Text(MsgInsufficientData))
		return nil
	}
	points := SummarizeGaze(c.rec.gaze, MaxAnalysisPoints)
	prompt := llm.BuildUXPrompt(llm.UXPromptInput{
		URL:      c.rec.targetURL,
		Width:    c.rec.viewport.Width,
		Height:   c.rec.viewport.Height,
		Points:   points,
		Language: c.msgs.Language(),
	})
	c.rec.analyzing = true
	c.rec.result = ""
	c.rec.hasResult = false
	return &AnalysisRequest{
		Generation: c.generation,
		APIKey:     c.rec.apiKey,
		Prompt:     prompt,
		Points:     points,
	}
}

func (c *Controller) setResult(text string) {
	c.rec.result = text
	c.rec.hasResult = true
}

// RunAnalysis performs the request and maps every way it can end, a panicking
// analyzer included, to the user-facing result text.
func RunAnalysis(ctx context.Context, analyzer Analyzer, req *AnalysisRequest, msgs Catalog) (out AnalysisOutcome) {
	out.Generation = req.Generation
	defer func() {
		if r := recover(); r != nil {
			out.Err = &Error{Kind: KindAnalysisRequest, Message: fmt.Sprint(r)}
			out.Text = msgs.Text(MsgAnalysisFailed, fmt.Sprint(r))
		}
	}()
	if analyzer == nil {
		out.Err = &Error{Kind: KindAnalysisRequest, Message: "no analysis client configured"}
		out.Text = msgs.Text(MsgAnalysisFailed, "no analysis client configured")
		return out
	}

	text, err := analyzer.Analyze(ctx, req.APIKey, req.Prompt)
	if err != nil {
		detail := errorDetail(err)
		out.Err = &Error{Kind: KindAnalysisRequest, Message: detail, Err: err}
		out.Text = msgs.Text(MsgAnalysisFailed, detail)
		return out
	}
	if strings.TrimSpace(text) == "" {
		out.Text = msgs.Text(MsgEmptyResponse)
		return out
	}
	out.Text = text
	return out
}

func errorDetail(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return strings.TrimSuffix(err.Error(), ".")
}

// ApplyAnalysis stores an outcome and clears the analyzing flag. Outcomes from
// an earlier session are dropped with ErrStaleGeneration.
func (c *Controller) ApplyAnalysis(out AnalysisOutcome) error {
	if out.Generation != c.generation {
		c.logger.Printf("[session] dropping analysis for generation %d (current %d)", out.Generation, c.generation)
		return ErrStaleGeneration
	}
	if !c.rec.analyzing {
		return ErrInvalidTransition
	}
	c.rec.analyzing = false
	c.setResult(out.Text)
	if out.Err != nil {
		c.logger.Printf("[session] %s analysis failed: %v", c.id, out.Err)
	}
	return nil
}

// Analyze runs a request synchronously and applies its outcome.
func (c *Controller) Analyze(ctx context.Context, analyzer Analyzer, req *AnalysisRequest) error {
	if req == nil {
		return nil
	}
	return c.ApplyAnalysis(RunAnalysis(ctx, analyzer, req, c.msgs))
}
