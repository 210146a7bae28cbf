// Package verdict extracts a Verdadeiro/Falso answer from free-form model
// output. The last marker in the text wins, so a model may reason at length
// and still declare its final answer at the end; when no marker occurs the
// parse fails rather than guessing.
package verdict

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical marker strings, as reports and prompts spell them.
const (
	LabelTrue  = "Verdadeiro"
	LabelFalse = "Falso"
)

// Word boundaries keep substrings of longer words from matching ("falsos").
// Matching runs over folded text, so the pattern stays lowercase ASCII.
var markerRe = regexp.MustCompile(`\b(verdadeiro|falso)\b`)

// Parse scans s for verdict markers, case-insensitively and tolerating
// diacritic variants. The occurrence with the greatest offset decides the
// verdict. ok is false when no marker occurs; the caller keeps the raw text
// for diagnostics. Parse is safe for concurrent use.
func Parse(s string) (verdict bool, ok bool) {
	matches := markerRe.FindAllString(fold(s), -1)
	if len(matches) == 0 {
		return false, false
	}
	return matches[len(matches)-1] == "verdadeiro", true
}

// Label returns the canonical report spelling for a verdict.
func Label(v bool) string {
	if v {
		return LabelTrue
	}
	return LabelFalse
}

func fold(s string) string {
	// transform.Chain values carry internal buffers and are not safe for
	// concurrent use, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
