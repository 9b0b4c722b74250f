package indexer

import (
	"regexp"
	"strings"
	"unicode"
)

// paragraphBreak matches a blank line, including lines holding only whitespace.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// splitSentences splits text on '.', '!' or '?' runs that are followed by whitespace
// or the end of the text. Trailing text without a terminator becomes the last sentence.
// Sentences are trimmed and empty ones dropped.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		end := i
		for end+1 < len(runes) && isTerminator(runes[end+1]) {
			end++
		}
		if end+1 == len(runes) || unicode.IsSpace(runes[end+1]) {
			sentences = appendTrimmed(sentences, string(runes[start:end+1]))
			start = end + 1
		}
		i = end
	}

	if start < len(runes) {
		sentences = appendTrimmed(sentences, string(runes[start:]))
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// splitParagraphs splits text on blank lines. Paragraphs are trimmed and empty ones dropped.
func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range paragraphBreak.Split(text, -1) {
		paragraphs = appendTrimmed(paragraphs, p)
	}
	return paragraphs
}

func appendTrimmed(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	return append(out, s)
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
