package extract

import (
	"regexp"
	"strings"
)

var (
	cidArtifact     = regexp.MustCompile(`\(cid:\d+\)`)
	pageMarkerLine  = regexp.MustCompile(`(?im)^[ \t]*(?:\d+|page \d+|chapter \d+)[ \t]*$`)
	urlPattern      = regexp.MustCompile(`https?://\S+`)
	emailPattern    = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	blankLines      = regexp.MustCompile(`\n[ \t]*\n`)
	spaceBeforePunc = regexp.MustCompile(`\s+([.,!?;:])`)
	missingSpace    = regexp.MustCompile(`([.,!?;:])([A-Z])`)
)

// CleanText normalises extracted text. Standalone page-number and chapter lines,
// URLs, email addresses and "(cid:N)" artifacts are removed; whitespace inside a
// paragraph collapses to single spaces; paragraphs stay separated by one blank line;
// spacing around punctuation is repaired.
func CleanText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = cidArtifact.ReplaceAllString(text, "")
	text = pageMarkerLine.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")

	var paragraphs []string
	for _, p := range blankLines.Split(text, -1) {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		p = spaceBeforePunc.ReplaceAllString(p, "$1")
		p = missingSpace.ReplaceAllString(p, "$1 $2")
		paragraphs = append(paragraphs, p)
	}

	return strings.Join(paragraphs, "\n\n")
}
