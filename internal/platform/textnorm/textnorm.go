// Package textnorm normalizes user and model supplied text so that the same
// word typed or extracted twice compares equal.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var listMarker = regexp.MustCompile(`^(?:[-*•·‣◦▪]+|\d{1,3}[.)]|\(\d{1,3}\))\s+`)

const wrapQuotes = "\"'`“”‘’「」『』«»"

// Clean returns NFC text with collapsed whitespace, without list markers
// or wrapping quotes.
func Clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = listMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, wrapQuotes)
	return strings.TrimSpace(s)
}

// Key is the comparison form of s: Clean plus Unicode case folding and
// removal of trailing sentence punctuation.
func Key(s string) string {
	s = Clean(s)
	s = strings.TrimRight(s, ".。!！?？,，;；:：")
	// Casers are stateful; one per call.
	s = cases.Fold().String(s)
	return norm.NFC.String(strings.TrimSpace(s))
}

// JoinKey builds a composite key from several parts.
func JoinKey(parts ...string) string {
	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = Key(p)
	}
	return strings.Join(keys, "|")
}
