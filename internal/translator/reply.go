package translator

import (
	"regexp"
	"strings"

	"github.com/valpere/batchtran/internal"
	"github.com/valpere/batchtran/internal/postprocess"
)

// idMarkerRe splits an LLM reply on its [ID: xxx] markers.
var idMarkerRe = regexp.MustCompile(`\[ID:\s*([^\]]+)\]`)

// ParseReply maps an LLM reply back onto the batch's segments. The reply is
// split on [ID: xxx] markers, each marker's trailing text becomes that id's
// target, and the records are assembled in the batch's original segment
// order. Segments the reply never mentions get an empty target — merge will
// then count them as missing rather than erroring.
//
// Markers for ids not in the batch are ignored; when the same id appears
// twice the later occurrence wins.
func ParseReply(content string, segments []internal.Segment) []internal.Translation {
	content = postprocess.CleanReply(content)

	byID := make(map[string]string)
	matches := idMarkerRe.FindAllStringSubmatchIndex(content, -1)
	for i, m := range matches {
		id := strings.TrimSpace(content[m[2]:m[3]])
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		byID[id] = postprocess.CleanSegment(content[m[1]:end])
	}

	translations := make([]internal.Translation, 0, len(segments))
	for _, seg := range segments {
		translations = append(translations, internal.NewTranslation(seg.ID, seg.Source, byID[seg.ID]))
	}
	return translations
}
