package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// minContentLength is the usefulness threshold for reader output.
	// Anything shorter is treated as an extraction failure.
	minContentLength = 100

	// maxContentLength caps stored content so downstream embedding
	// requests stay within provider limits.
	maxContentLength = 8000
)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes extracted text: collapses runs of spaces and blank
// lines, trims, and hard-truncates at maxContentLength.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if len(text) > maxContentLength {
		cut := maxContentLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
