package types

import (
	"strings"
)

// StringList is a slice of strings stored as a jsonb column via the
// gorm JSON serializer.
type StringList []string

// ContainsFold reports whether the list contains s, compared
// case-insensitively after trimming whitespace.
func (l StringList) ContainsFold(s string) bool {
	needle := strings.TrimSpace(s)
	for _, v := range l {
		if strings.EqualFold(strings.TrimSpace(v), needle) {
			return true
		}
	}
	return false
}

// Contains reports whether the list contains the exact string s.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
