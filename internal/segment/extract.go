// Package segment extracts translatable segments from a parsed interchange
// document. Extraction is read-only; it never mutates the document model.
package segment

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/valpere/batchtran/internal"
	"github.com/valpere/batchtran/internal/xliff"
)

// ErrNoSegments reports that no translatable segments were found under
// either dialect.
var ErrNoSegments = errors.New("segment: no translatable segments found")

// Mode selects which units are included in extraction.
type Mode int

const (
	// ModeUntranslated includes only units whose target text is empty.
	ModeUntranslated Mode = iota
	// ModeAll includes every unit with non-empty source text, regardless of
	// any pre-existing translation.
	ModeAll
)

// Extract walks the document's trans-units in document order and returns the
// segments matching mode, plus the dialect that produced them.
//
// A unit is included iff its normalized source text is non-empty and either
// mode is ModeAll or its target text is empty. Units with empty or
// whitespace-only source are never translation candidates.
func Extract(doc *xliff.Document, mode Mode) ([]internal.Segment, xliff.Dialect, error) {
	units, dialect := doc.FindUnits()
	if dialect == xliff.DialectNone {
		return nil, dialect, ErrNoSegments
	}

	var segments []internal.Segment
	for _, u := range units {
		source := Normalize(u.SourceText())
		if source == "" {
			continue
		}
		if mode == ModeUntranslated && Normalize(u.TargetText()) != "" {
			continue
		}
		segments = append(segments, internal.Segment{ID: u.ID, Source: source})
	}

	if len(segments) == 0 {
		return nil, dialect, ErrNoSegments
	}
	return segments, dialect, nil
}

// Normalize NFC-normalizes s and collapses all interior whitespace runs to
// single spaces, trimming the ends. Inline-markup boundaries inside a source
// slot show up as whitespace runs, so collapsing keeps the payload stable
// regardless of how the markup was indented.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
