package model

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxSlugLength = 64

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidFormID reports whether id is a slug of letters, digits, '-' and '_'
// (at most 64 characters) or a UUID.
func ValidFormID(id string) bool {
	if slugPattern.MatchString(id) {
		return true
	}
	if len(id) != 36 && len(id) != 38 && len(id) != 45 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Slugify lowercases s and collapses every run of other characters into a
// single '-', producing a value ValidFormID accepts when non-empty.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxSlugLength {
		out = strings.TrimRight(out[:maxSlugLength], "-")
	}
	return out
}
