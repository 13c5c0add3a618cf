package library

import (
	"regexp"
	"strings"
)

var (
	isbn13Pattern = regexp.MustCompile(`^(978|979)\d{10}$`)
	isbn10Pattern = regexp.MustCompile(`^\d{10}$`)
)

// CleanISBN strips hyphens and spaces.
func CleanISBN(isbn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
}

// ValidISBN reports whether isbn is a 13-digit (978/979 prefix) or 10-digit
// number once hyphens and spaces are removed. Check digits are not verified.
func ValidISBN(isbn string) bool {
	clean := CleanISBN(isbn)
	return isbn13Pattern.MatchString(clean) || isbn10Pattern.MatchString(clean)
}

// PreprocessKeyword keeps only the first limit whitespace-separated tokens.
// The upstream keyword search degrades badly on longer phrases.
func PreprocessKeyword(keyword string, limit int) string {
	tokens := strings.Fields(keyword)
	if limit > 0 && len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return strings.Join(tokens, " ")
}
