// Package normalize provides utilities for normalizing and sanitizing user input.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Email normalizes an email address for storage.
// Surrounding whitespace is trimmed and the domain part is lower-cased;
// the local part is kept as typed:
//
//	"  Jane.Doe@Example.COM " -> "Jane.Doe@example.com"
//
// Input without an "@" is only trimmed.
func Email(raw string) string {
	s := strings.TrimSpace(sanitizeString(raw))
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}
	return s[:at] + "@" + strings.ToLower(s[at+1:])
}

// EmailKey returns the uniqueness key for an email address.
// Two addresses that differ only in letter case (Unicode case folding)
// share a key.
func EmailKey(raw string) string {
	return cases.Fold().String(norm.NFKC.String(Email(raw)))
}

// Name normalizes a display name: NFKC composition, null bytes and control
// characters dropped, internal runs of whitespace collapsed to one space.
func Name(raw string) string {
	s := norm.NFKC.String(sanitizeString(raw))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeString removes null bytes from strings, which can cause
// issues in databases and JSON parsing.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
