package util

import (
	"regexp"
)

const MaxSlugLength = 80

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsValidSlug reports whether s could have been produced by the slug generator.
func IsValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength {
		return false
	}
	return slugRegex.MatchString(s)
}
