// Package issues splits free-text issue lists into tokens and buckets each
// token into a technology layer.
package issues

import "strings"

// Unspecified stands in for a record with no usable issue text.
const Unspecified = "Unspecified"

// Tokenize splits an issue list on runs of ';', trims each part and drops
// empty parts and the literals "null" and "undefined" in any case. When
// nothing survives the result is []string{Unspecified}.
func Tokenize(field string) []string {
	parts := strings.Split(field, ";")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "null") || strings.EqualFold(p, "undefined") {
			continue
		}
		tokens = append(tokens, p)
	}
	if len(tokens) == 0 {
		return []string{Unspecified}
	}
	return tokens
}

// IsUnspecified reports whether token is the no-issue sentinel.
func IsUnspecified(token string) bool {
	return token == Unspecified
}
