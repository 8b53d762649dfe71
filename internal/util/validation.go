package util

import (
	"regexp"
)

var (
	uuidRegex       = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	shareTokenRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

// IsValidShareToken reports whether s looks like a share token
// (64 lowercase hex chars).
func IsValidShareToken(s string) bool {
	return shareTokenRegex.MatchString(s)
}

