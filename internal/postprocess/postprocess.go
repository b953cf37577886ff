// Package postprocess removes common LLM artifacts from translation output.
//
// CleanReply runs on a whole batch reply before the [ID: xxx] markers are
// parsed; CleanSegment runs on each extracted per-segment target.
package postprocess

import (
	"regexp"
	"strings"
)

// CleanReply strips reply-level artifacts: thinking/reasoning blocks and
// code-fence wrapping around the whole answer.
func CleanReply(text string) string {
	text = removeThinkingBlocks(text)
	text = removeCodeFence(text)
	return strings.TrimSpace(text)
}

// CleanSegment strips per-segment artifacts: instruction echoes and a
// matching pair of wrapping quotes, then trims.
func CleanSegment(text string) string {
	text = strings.TrimSpace(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// --- thinking blocks ---

// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences. Flags: i = case-insensitive, s = dot matches
// newline.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag never
// arrived (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- code fences ---

// fenceRe matches a reply wrapped entirely in a ``` fence, with an optional
// language tag on the opening line.
var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z0-9]*\n(.*?)\n?```$")

func removeCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// --- instruction echoes ---

// echoPatterns match introductory phrases LLMs sometimes prepend even when
// instructed not to. Anchored to the start and requiring a colon to avoid
// false positives on legitimate content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// --- quote wrapping ---

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them. Supported pairs: "…" '…' «…» and the curly
// double/single quote pairs.
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
