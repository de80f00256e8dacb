// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLength caps derived filenames so titles of any length map to a
// filesystem-safe name.
const maxSlugLength = 100

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)

	// Decomposes accented characters and strips the combining marks,
	// so "Café" slugs to "cafe" rather than losing the letter.
	asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slug converts a book title to its canonical filename stem.
// The slug is the sole link between a catalog record and its markdown file,
// so it must be pure and deterministic: same title, same slug, every time.
// Two books with identical titles contend for the same filename; that
// ambiguity is documented, not resolved here.
//
// Normalization rules:
//  1. Fold accented characters to their ASCII base letter
//  2. Trim whitespace and lowercase
//  3. Replace spaces, underscores, and slashes with dashes
//  4. Remove non-alphanumeric characters (except dashes)
//  5. Collapse multiple dashes, trim leading/trailing dashes
//  6. Cap at 100 characters
//
// Examples:
//
//	"A Tale of Two Cities" → "a-tale-of-two-cities"
//	"1984"                 → "1984"
//	"Café Europa"          → "cafe-europa"
//	"Mrs. Dalloway"        → "mrs-dalloway"
func Slug(title string) string {
	// 1. Fold to ASCII. On transform failure keep the original input;
	// the regex passes below still strip anything unsafe.
	s, _, err := transform.String(asciiFold, title)
	if err != nil {
		s = title
	}

	// 2. Trim and lowercase
	s = strings.ToLower(strings.TrimSpace(s))

	// 3. Replace word separators (spaces, underscores, slashes) with dashes
	s = wordSeparatorRe.ReplaceAllString(s, "-")

	// 4. Remove non-alphanumeric (except dashes)
	s = nonAlphanumericRe.ReplaceAllString(s, "")

	// 5. Collapse multiple dashes, trim leading/trailing dashes
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	// 6. Length cap
	if len(s) > maxSlugLength {
		s = strings.Trim(s[:maxSlugLength], "-")
	}

	return s
}
