// Package textutil provides text normalization and content fingerprinting for
// extracted filing sections. All extraction paths funnel through Normalize so
// that hashes computed over section text are stable across re-extraction.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	controlChars  = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F]")
	pageFooter    = regexp.MustCompile(`(?i)Page\s+\d+\s+of\s+\d+`)
	tocBoiler     = regexp.MustCompile(`(?i)Table\s+of\s+Contents`)

	curlyQuotes = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
)

// Normalize cleans raw extracted text: collapses whitespace runs to single
// spaces, strips non-printable control characters, converts curly quotes to
// straight quotes, and removes common page boilerplate. Normalizing already
// normalized text is a no-op.
func Normalize(text string) string {
	text = controlChars.ReplaceAllString(text, "")
	text = curlyQuotes.Replace(text)
	text = pageFooter.ReplaceAllString(text, "")
	text = tocBoiler.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Hash returns the lowercase hex SHA-256 digest of text. Equal hashes are
// used to short-circuit diffing when a section is unchanged.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
