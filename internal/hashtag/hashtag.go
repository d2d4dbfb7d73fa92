// Package hashtag extracts #tag tokens from entry text.
package hashtag

import (
	"strings"
	"unicode"
)

// Extract returns the distinct hashtag tokens in text, in order of first
// occurrence and with the author's casing preserved. Tokens are deduplicated
// case-insensitively. A tag is a '#' followed by one or more letters, digits,
// or underscores. Extract never fails; malformed input yields an empty set.
func Extract(text string) []string {
	var tags []string
	seen := make(map[string]struct{})

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '#' {
			continue
		}
		j := i + 1
		for j < len(runes) && isTagRune(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		tag := string(runes[i+1 : j])
		key := strings.ToLower(tag)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			tags = append(tags, tag)
		}
		i = j - 1
	}
	return tags
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
