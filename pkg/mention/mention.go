// Package mention extracts @handle references from block text.
package mention

import (
	"regexp"
	"strings"
)

// handlePattern matches "@" followed by letters, digits, dot, hyphen or
// underscore. \B keeps "user@example.com" from yielding "example.com": the
// "@" must not follow a word character.
var handlePattern = regexp.MustCompile(`(?i)\B@([a-z0-9.\-_]+)`)

// Extract returns every handle mentioned in text, lowercased and in order.
// Duplicates are kept; callers dedupe when they care.
//
// Examples:
//
//	Extract("hi @Bob and @bob") → ["bob", "bob"]
//	Extract("no mentions")      → []
func Extract(text string) []string {
	if !strings.Contains(text, "@") {
		return []string{}
	}

	matches := handlePattern.FindAllStringSubmatch(text, -1)
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			handles = append(handles, strings.ToLower(m[1]))
		}
	}
	return handles
}

// Contains reports whether handle (case-insensitive) is mentioned in text.
func Contains(text, handle string) bool {
	if handle == "" {
		return false
	}
	handle = strings.ToLower(handle)
	for _, h := range Extract(text) {
		if h == handle {
			return true
		}
	}
	return false
}
