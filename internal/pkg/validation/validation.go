package validation

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Hex colour: #rgb or #rrggbb.
var colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizeEmail trims and lowercases an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidColor(color string) bool {
	return colorRe.MatchString(color)
}

// Slugify lowercases name, collapses every run of non-alphanumerics into a
// single "-" and trims leading/trailing dashes. "Acme, Inc." -> "acme-inc".
func Slugify(name string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
