package translator

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultContextWords is how many trailing words of the previous batch are
// carried into the next batch's prompt as continuity context.
const DefaultContextWords = 25

// BuildPrompt renders one batch into the prompt consumed by LLM services.
// Each segment appears as an [ID: xxx] block; the reply is expected in the
// same format and is parsed by ParseReply.
func BuildPrompt(req BatchRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the detected language"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are a professional translator. Translate the following segments from %s to %s.\n\n", sourceLang, req.TargetLang))
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Translate accurately and naturally; keep numbering and formatting of each segment.\n")
	sb.WriteString("2. Output every segment as an [ID: xxx] line followed by the translation, with a blank line between segments.\n")
	sb.WriteString("3. Do not add explanations, notes, or anything outside the [ID: xxx] blocks.\n")

	if req.Instructions != "" {
		sb.WriteString("4. ")
		sb.WriteString(req.Instructions)
		sb.WriteString("\n")
	}

	if len(req.Glossary) > 0 {
		sb.WriteString("\nTERMINOLOGY (use these exact translations):\n")
		for _, src := range sortedKeys(req.Glossary) {
			sb.WriteString(fmt.Sprintf("  %s → %s\n", src, req.Glossary[src]))
		}
	}

	if req.PreviousContext != "" {
		sb.WriteString(fmt.Sprintf("\nCONTEXT (end of the previous batch, for continuity; do NOT translate this):\n...%s\n", req.PreviousContext))
	}

	sb.WriteString("\nSegments to translate:\n\n")
	for _, seg := range req.Segments {
		sb.WriteString(fmt.Sprintf("[ID: %s]\n%s\n\n", seg.ID, seg.Source))
	}

	return sb.String()
}

// ExtractContext returns the last wordCount words of text joined by single
// spaces, for use as the next batch's PreviousContext. The whole text is
// returned when it has fewer words; wordCount <= 0 uses DefaultContextWords.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.Join(words, " ")
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}

// sortedKeys keeps prompt content deterministic for a given glossary.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
