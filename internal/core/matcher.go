package core

import "strings"

// MatchGroup returns the index of the first keyword group whose keywords all
// occur in text, or -1 when none does. text is expected to be lower-cased.
func MatchGroup(text string, groups []KeywordGroup) int {
	for i, group := range groups {
		if groupMatches(text, group) {
			return i
		}
	}
	return -1
}

// IsScam reports whether any keyword group is fully contained in text
func IsScam(text string, groups []KeywordGroup) bool {
	return MatchGroup(text, groups) >= 0
}

func groupMatches(text string, group KeywordGroup) bool {
	for _, keyword := range group.Keywords {
		if !strings.Contains(text, keyword) {
			return false
		}
	}
	return true
}
