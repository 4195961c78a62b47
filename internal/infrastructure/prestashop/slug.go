package prestashop

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength = 128
	fallbackSlug  = "produit"
)

var slugSeparatorRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a link_rewrite value from a product name. The result only
// contains [a-z0-9-], never starts or ends with '-', is at most 128 bytes long
// and is never empty.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		s = strings.ToLower(name)
	}

	s = slugSeparatorRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}
