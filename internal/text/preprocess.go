package text

import (
	"regexp"
	"strings"
)

var (
	bracketCue = regexp.MustCompile(`\[[^\[\]]*\]`)
	parenCue   = regexp.MustCompile(`\([^()]*\)`)
	spaceRun   = regexp.MustCompile(`\s+`)
)

// discourseRewrites replaces formal written connectives with their
// conversational equivalents. Purely mechanical, applied in order.
var discourseRewrites = []struct{ from, to string }{
	{"However, ", "But "},
	{"however, ", "but "},
	{"Therefore, ", "So "},
	{"therefore, ", "so "},
	{"Furthermore, ", "And "},
	{"furthermore, ", "and "},
	{"In addition, ", "Also, "},
	{"in addition, ", "also, "},
	{"Nevertheless, ", "Still, "},
	{"nevertheless, ", "still, "},
	{"Moreover, ", "Plus, "},
	{"moreover, ", "plus, "},
}

// Preprocess prepares a script for the synthesizer: stage directions
// and reader-facing cues in brackets or parentheses are removed,
// whitespace is normalized, and formal connectives become
// conversational. The transform is deterministic.
func Preprocess(script string) string {
	s := bracketCue.ReplaceAllString(script, " ")
	s = parenCue.ReplaceAllString(s, " ")

	for _, rw := range discourseRewrites {
		s = strings.ReplaceAll(s, rw.from, rw.to)
	}

	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalize collapses all whitespace runs to single spaces. Used when
// comparing chunked output to its source.
func Normalize(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
