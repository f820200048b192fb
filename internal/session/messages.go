package session

import (
	"fmt"

	"golang.org/x/text/language"
)

// MessageKey identifies a user-visible string.
type MessageKey int

const (
	MsgEmptyURL MessageKey = iota
	MsgInvalidURL
	MsgCameraUnavailable
	MsgAnalysisSkipped
	MsgInsufficientData
	MsgEmptyResponse
	MsgAnalysisFailed
	MsgEmbeddingBlocked
)

var supportedLanguages = []language.Tag{
	language.English,
	language.Spanish,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var catalogs = map[language.Tag]map[MessageKey]string{
	language.English: {
		MsgEmptyURL:          "Please enter a URL.",
		MsgInvalidURL:        "The URL is not valid. Check that it is well formed.",
		MsgCameraUnavailable: "Could not start the camera. Grant camera permission and reload the companion page.",
		MsgAnalysisSkipped:   "UX analysis skipped: no API key was provided.",
		MsgInsufficientData:  "Not enough gaze data was collected for a meaningful UX analysis.",
		MsgEmptyResponse:     "The API response was empty.",
		MsgAnalysisFailed:    "Could not generate the UX analysis: %s. Check your API key and your connection.",
		MsgEmbeddingBlocked:  "%s does not allow being embedded in other pages (X-Frame-Options or Content-Security-Policy). Try another URL.",
	},
	language.Spanish: {
		MsgEmptyURL:          "Por favor, introduce una URL válida.",
		MsgInvalidURL:        "La URL introducida no es válida. Asegúrate de que tenga el formato correcto.",
		MsgCameraUnavailable: "No se pudo iniciar la cámara. Por favor, concede los permisos y recarga la página.",
		MsgAnalysisSkipped:   "Análisis de UX omitido: no se proporcionó una clave de API.",
		MsgInsufficientData:  "No se recopilaron suficientes datos de la mirada para un análisis de UX significativo.",
		MsgEmptyResponse:     "La respuesta de la API estaba vacía.",
		MsgAnalysisFailed:    "Error al generar el análisis de UX: %s. Por favor, verifica tu clave de API y la conexión.",
		MsgEmbeddingBlocked:  "El sitio web %s no permite ser incrustado en otras páginas (cabecera X-Frame-Options o Content-Security-Policy). Prueba con otra URL.",
	},
}

// Catalog resolves message keys for one language.
type Catalog struct {
	tag      language.Tag
	messages map[MessageKey]string
}

// NewCatalog picks the closest supported language for lang, falling back to
// English when lang is empty or unknown.
func NewCatalog(lang string) Catalog {
	tag := language.English
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			_, idx, conf := languageMatcher.Match(parsed)
			if conf != language.No {
				tag = supportedLanguages[idx]
			}
		}
	}
	return Catalog{tag: tag, messages: catalogs[tag]}
}

// Supported reports whether lang resolves to one of the bundled catalogs.
func Supported(lang string) bool {
	parsed, err := language.Parse(lang)
	if err != nil {
		return false
	}
	_, _, conf := languageMatcher.Match(parsed)
	return conf != language.No
}

// Language returns the base language code, e.g. "en" or "es".
func (c Catalog) Language() string {
	base, _ := c.tag.Base()
	return base.String()
}

// Text formats the message for key.
func (c Catalog) Text(key MessageKey, args ...any) string {
	messages := c.messages
	if messages == nil {
		messages = catalogs[language.English]
	}
	format, ok := messages[key]
	if !ok {
		format = catalogs[language.English][key]
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
