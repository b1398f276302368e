package domain

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// CleanText strips HTML tags and collapses runs of Unicode whitespace.
func CleanText(value string) string {
	return strings.Join(strings.Fields(tagRe.ReplaceAllString(value, " ")), " ")
}

// TextToBool interprets loose truthy strings ("1", "true", "yes", "y").
func TextToBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
