// Package placeholder protects non-translatable content inside segment
// sources (markup tags, format specifiers, numbered template slots) by
// replacing it with numbered markers ([PH0], [PH1], …) that LLMs are
// instructed to preserve. After translation, Restore substitutes the
// markers back.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// HTML/XML tags that survived extraction as literal text
	reMarkupTag = regexp.MustCompile(`<[^>]+>`)

	// printf-style format specifiers: %s %d %03.2f %%
	reFormatSpec = regexp.MustCompile(`%[-+ #0]*\d*(?:\.\d+)?[bcdeEfgGoqstTuUvxX%]`)

	// numbered template slots: {0}, {name}, {1:date}
	reTemplateSlot = regexp.MustCompile(`\{[^{}\s]+\}`)

	// placeholder reference in translated text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces non-translatable tokens (markup tags, printf specifiers,
// template slots) with numbered placeholders [PH0], [PH1], … in the order
// they appear in text. It returns the modified text and the slice of
// captured originals so Restore can put them back.
func Protect(text string) (string, []string) {
	var markers []string
	counter := 0

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", counter)
		markers = append(markers, match)
		counter++
		return id
	}

	// Order matters: tags first (longest match), then format specifiers,
	// then template slots.
	text = reMarkupTag.ReplaceAllStringFunc(text, replace)
	text = reFormatSpec.ReplaceAllStringFunc(text, replace)
	text = reTemplateSlot.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore substitutes [PHn] markers in text back with the originals captured
// by Protect. Markers missing from the translated text are silently ignored;
// unrecognised indices leave the placeholder as-is.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// InstructionHint returns a short sentence to append to an LLM prompt so the
// model knows to leave placeholders intact.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear; do not translate, move, or remove them."
}

// Validate checks whether all markers that were created by Protect are still
// present in the translated text. It returns the list of missing indices.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
