package postprocess_test

import (
	"testing"

	"github.com/valpere/batchtran/internal/postprocess"
)

func TestCleanReply_ThinkingBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"closed thinking block",
			"<thinking>let me work this out</thinking>\n[ID: 1]\nHello",
			"[ID: 1]\nHello",
		},
		{
			"think variant",
			"<think>hmm</think>[ID: 1]\nHello",
			"[ID: 1]\nHello",
		},
		{
			"truncated thinking block",
			"[ID: 1]\nHello\n<thinking>and now I will",
			"[ID: 1]\nHello",
		},
		{
			"case insensitive",
			"<THINKING>x</THINKING>answer",
			"answer",
		},
		{
			"no block",
			"[ID: 1]\nHello",
			"[ID: 1]\nHello",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postprocess.CleanReply(tt.in); got != tt.want {
				t.Errorf("CleanReply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanReply_CodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain fence", "```\ncontent here\n```", "content here"},
		{"language tag", "```text\ncontent here\n```", "content here"},
		{"not fully wrapped", "before ```\nx\n``` after", "before ```\nx\n``` after"},
		{"interior fence kept", "```\nuse ``` for code\n```", "use ``` for code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postprocess.CleanReply(tt.in); got != tt.want {
				t.Errorf("CleanReply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanSegment_InstructionEchoes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"here is the translation", "Here is the translation: Hello world", "Hello world"},
		{"translation colon", "Translation: Hello world", "Hello world"},
		{"sure here is", "Sure, here's the translation: Hello", "Hello"},
		{"legit colon content kept", "Warning: do not touch", "Warning: do not touch"},
		{"mid-text not stripped", "He said here is the translation: of the text", "He said here is the translation: of the text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postprocess.CleanSegment(tt.in); got != tt.want {
				t.Errorf("CleanSegment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanSegment_QuoteWrapping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double quotes", `"Hello world"`, "Hello world"},
		{"guillemets", "«Bonjour»", "Bonjour"},
		{"curly quotes", "“Hello”", "Hello"},
		{"mismatched pair kept", `"Hello world'`, `"Hello world'`},
		{"interior quotes kept", `He said "hi" to her`, `He said "hi" to her`},
		{"single char", `"`, `"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postprocess.CleanSegment(tt.in); got != tt.want {
				t.Errorf("CleanSegment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanSegment_Whitespace(t *testing.T) {
	if got := postprocess.CleanSegment("  padded  "); got != "padded" {
		t.Errorf("CleanSegment = %q, want trimmed", got)
	}
	if got := postprocess.CleanSegment(""); got != "" {
		t.Errorf("CleanSegment(\"\") = %q", got)
	}
}
