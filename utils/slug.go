package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Slugify lowercases, trims and dashes a display name into a URL/schema-safe
// slug. Returns an error when nothing usable remains after sanitization.
func Slugify(name string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '_', r == '-', r == '.':
			return '-'
		default:
			return -1
		}
	}, s)
	s = strings.Trim(regexp.MustCompile(`-+`).ReplaceAllString(s, "-"), "-")
	if !slugPattern.MatchString(s) {
		return "", fmt.Errorf("invalid slug after sanitization: %q", name)
	}
	if len(s) > 48 {
		s = strings.Trim(s[:48], "-")
	}
	return s, nil
}
