package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUXPromptEmbedsSessionData(t *testing.T) {
	prompt := BuildUXPrompt(UXPromptInput{
		URL:    "https://example.com",
		Width:  1440,
		Height: 900,
		Points: []GazeSample{{X: 10, Y: 20}, {X: 30, Y: 40}},
	})

	assert.Contains(t, prompt, "Page URL: https://example.com")
	assert.Contains(t, prompt, "1440 x 900px")
	assert.Contains(t, prompt, `First 2 gaze points: [{"x":10,"y":20},{"x":30,"y":40}]`)
	assert.Contains(t, prompt, "### 6. Concrete UI/UX Recommendations")
}

func TestBuildUXPromptSpanish(t *testing.T) {
	prompt := BuildUXPrompt(UXPromptInput{URL: "https://example.es", Width: 800, Height: 600, Language: "es"})

	assert.True(t, strings.HasPrefix(prompt, "Eres un experto analista"))
	assert.Contains(t, prompt, "Primeros 0 puntos de la mirada: []")
}
