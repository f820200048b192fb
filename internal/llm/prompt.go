package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GazeSample is a gaze coordinate rounded to whole pixels.
type GazeSample struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UXPromptInput is everything the usability critique prompt embeds.
type UXPromptInput struct {
	URL      string
	Width    int
	Height   int
	Points   []GazeSample
	Language string
}

// BuildUXPrompt renders the usability analysis prompt. Spanish is used when
// Language is "es"; any other value gets the English prompt.
func BuildUXPrompt(in UXPromptInput) string {
	points, err := json.Marshal(in.Points)
	if err != nil || len(in.Points) == 0 {
		points = []byte("[]")
	}
	if strings.EqualFold(in.Language, "es") {
		return fmt.Sprintf(spanishUXPrompt, in.URL, in.Width, in.Height, len(in.Points), points)
	}
	return fmt.Sprintf(englishUXPrompt, in.URL, in.Width, in.Height, len(in.Points), points)
}

const englishUXPrompt = `You are a world-class UI/UX analyst. Your task is to analyze a user's eye-tracking session on a web page.
You will receive the page URL, the screen dimensions and a series of (x, y) coordinates showing where the user looked.

SESSION DATA:
- Page URL: %s
- Screen dimensions (width x height): %d x %dpx
- First %d gaze points: %s

ANALYSIS TASK:
Based on the data provided, write a complete, professional UX analysis. Structure your answer in English using markdown and the following sections:

### 1. Overall Interaction Summary
(Briefly describe the user's behaviour. Did they seem focused, lost, scanning quickly?)

### 2. Areas of Highest Attention (Hotspots)
(Identify the areas, e.g. 'top-left corner', 'center', 'navigation bar', that received the most attention according to the coordinates. Infer which UI elements might sit there.)

### 3. Ignored Areas or Blind Spots
(Identify the areas with little or no gaze. Speculate on why they were ignored. Are they ads, the footer, or unimportant elements?)

### 4. Visual Scanning Pattern
(Describe the user's visual path. Does it follow an F pattern, a Z pattern, or is it erratic? What could this say about the page layout and how easy it is to find information?)

### 5. Possible Friction or Confusion Points
(Is there evidence of the gaze jumping repeatedly between two points? That could mean the user was comparing options or was confused by the navigation or the copy.)

### 6. Concrete UI/UX Recommendations
(Give at least 3 practical, actionable suggestions to improve the design and the user experience based on your analysis.)
`

const spanishUXPrompt = `Eres un experto analista de UI/UX de clase mundial. Tu tarea es analizar una sesión de seguimiento ocular de un usuario en una página web.
A continuación, recibirás la URL de la página, las dimensiones de la pantalla y una serie de coordenadas (x, y) que representan dónde miró el usuario.

DATOS DE LA SESIÓN:
- URL de la página: %s
- Dimensiones de la pantalla (Ancho x Alto): %d x %dpx
- Primeros %d puntos de la mirada: %s

TAREA DE ANÁLISIS:
Basándote en los datos proporcionados, realiza un análisis de UX completo y profesional. Estructura tu respuesta en español utilizando markdown y las siguientes secciones:

### 1. Resumen General de la Interacción
(Describe brevemente el comportamiento del usuario. ¿Parecía enfocado, perdido, explorando rápidamente?)

### 2. Zonas de Mayor Atención (Hotspots)
(Identifica las áreas (ej. 'esquina superior izquierda', 'centro', 'barra de navegación') que recibieron más atención según las coordenadas. Infiere qué elementos de la UI podrían estar en esas zonas.)

### 3. Zonas Ignoradas o Puntos Ciegos
(Identifica las áreas con poca o ninguna mirada. Especula por qué podrían haber sido ignoradas. ¿Son áreas de anuncios, el pie de página, o elementos poco importantes?)

### 4. Patrón de Escaneo Visual
(Describe la ruta visual del usuario. ¿Sigue un patrón en F, en Z, o es errático? ¿Qué podría indicar esto sobre el diseño de la página y la facilidad para encontrar información?)

### 5. Posibles Puntos de Fricción o Confusión
(¿Hay evidencia de que la mirada salta repetidamente entre dos puntos? Esto podría indicar que el usuario estaba comparando opciones, o que estaba confundido por la navegación o el texto.)

### 6. Recomendaciones Concretas de UI/UX
(Ofrece al menos 3 sugerencias prácticas y accionables para mejorar el diseño y la experiencia del usuario basándote en tu análisis.)
`
