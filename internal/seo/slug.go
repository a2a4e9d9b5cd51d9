// Package seo derives the public URL surface for a business: slugs, the
// sitemap, the robots policy, and the page manifest the generator works
// through. All URL segments in the repository come from Slugify; nothing
// else may build slugs, or service and sitemap URLs drift apart.
package seo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritics so "Façade Repair" slugs the same as
// "Facade Repair".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a display name into a URL-safe segment: lowercase,
// diacritics folded, non-alphanumerics collapsed to single hyphens. The
// result matches ^[a-z0-9]+(-[a-z0-9]+)*$ (or is empty) and the function is
// idempotent, so stored slugs can be re-slugified safely.
func Slugify(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
