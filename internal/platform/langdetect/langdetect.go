// Package langdetect tags text with its natural language.
package langdetect

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// DefaultMinConfidence suits texts of a sentence or two.
const DefaultMinConfidence = 0.2

// Detector guesses the language of short texts with whatlanggo.
type Detector struct {
	// minConfidence below which the guess is discarded.
	minConfidence float64
}

// NewDetector creates a Detector. Guesses under minConfidence are reported as unknown.
func NewDetector(minConfidence float64) *Detector {
	return &Detector{minConfidence: minConfidence}
}

// Detect returns the ISO 639-1 code of text, or "" when the language cannot be determined.
// It never fails.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if info.Script == nil || info.Lang < 0 {
		return ""
	}
	if info.Confidence < d.minConfidence {
		return ""
	}
	return info.Lang.Iso6391()
}
