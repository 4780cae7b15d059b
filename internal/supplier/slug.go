package supplier

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugAttempts caps the collision retry loop during supplier creation.
const maxSlugAttempts = 100

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify renders a supplier name as a URL-safe slug: diacritics stripped,
// lowercased, runs of non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	flat, _, err := transform.String(deaccent, name)
	if err != nil {
		flat = name
	}
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(flat) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// slugCandidate returns the attempt-th slug candidate for a base slug:
// the base itself first, then numeric suffixes.
func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt+1)
}

// NormalizeName produces the per-tenant uniqueness key for a supplier
// name. It shares the vendor-name normalization used by fingerprinting so
// two ingestions of the same vendor serialize on the same row.
func NormalizeName(name string) string {
	flat, _, err := transform.String(deaccent, name)
	if err != nil {
		flat = name
	}
	return strings.Join(strings.Fields(strings.ToLower(flat)), " ")
}
