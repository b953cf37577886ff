// Package detector identifies the language of source text, used to resolve
// the "auto" source-language setting before a translation run.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// maxSampleLength caps the combined sample handed to the detector. Accuracy
// plateaus long before this; larger inputs only cost time.
const maxSampleLength = 2000

// Detector wraps a lingua language detector. Building one is expensive;
// reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

// Detect returns the most likely language of text.
func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the detected language as an ISO 639-1 code.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// DetectSampleISO detects over several texts joined into one sample. Single
// segments are often too short for a reliable verdict; pooling a handful of
// them gives the detector enough signal. Blank texts are skipped and the
// sample is capped at maxSampleLength bytes.
func (d *Detector) DetectSampleISO(texts []string) (string, bool) {
	var sb strings.Builder
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(t)
		if sb.Len() >= maxSampleLength {
			break
		}
	}
	return d.DetectISO(sb.String())
}
